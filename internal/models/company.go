package models

import "time"

const (
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Country      string    `json:"country"`
	Sector       string    `json:"sector"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	RefreshToken string    `json:"-"`
	Website      string    `json:"website,omitempty"`
	Telephone    string    `json:"telephone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
