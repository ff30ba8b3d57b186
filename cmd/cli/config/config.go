package config

import (
	"os"
	"path/filepath"
)

const defaultAPIURL = "http://localhost:8080"

const tokenFileName = ".supervisor_token"

// APIURL returns the base URL for the Market Supervisor API.
// It can be overridden with the SUPERVISOR_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("SUPERVISOR_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// SaveToken stores the access token in the user's home directory.
func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

// LoadToken reads the stored access token.
func LoadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearToken removes the stored token. Missing file is not an error.
func ClearToken() error {
	err := os.Remove(tokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func tokenPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
