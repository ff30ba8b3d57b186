package companies

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/crucial707/market-supervisor/cmd/cli/config"
	"github.com/crucial707/market-supervisor/cmd/cli/output"
)

// ==========================
// Init Companies
// ==========================
func InitCompanies(rootCmd *cobra.Command) {

	companiesCmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage company accounts",
	}

	companiesCmd.AddCommand(
		listCompaniesCmd(),
		createCompanyCmd(),
		toggleCompanyCmd(),
		resetPasswordCmd(),
		deleteCompanyCmd(),
	)

	rootCmd.AddCommand(companiesCmd)
}

func authedRequest(method, path string, body []byte) (*http.Response, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, config.APIURL()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}

// ==========================
// LIST
// ==========================
func listCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("GET", "/companies", nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out struct {
				Companies []struct {
					ID       string `json:"id"`
					Name     string `json:"name"`
					Email    string `json:"email"`
					Country  string `json:"country"`
					Sector   string `json:"sector"`
					IsActive bool   `json:"is_active"`
				} `json:"companies"`
				Total int `json:"total"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				fmt.Println(err)
				return
			}

			rows := make([][]interface{}, 0, len(out.Companies))
			for _, c := range out.Companies {
				rows = append(rows, []interface{}{c.ID, c.Name, c.Email, c.Country, c.Sector, c.IsActive})
			}
			output.RenderTable([]string{"ID", "Name", "Email", "Country", "Sector", "Active"}, rows)
			fmt.Printf("Total: %d\n", out.Total)
		},
	}
}

// ==========================
// CREATE
// ==========================
func createCompanyCmd() *cobra.Command {

	var name string
	var email string
	var country string
	var sector string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company (password is generated and emailed)",
		Run: func(cmd *cobra.Command, args []string) {

			payload := map[string]string{
				"name":    name,
				"email":   email,
				"country": country,
				"sector":  sector,
			}
			body, _ := json.Marshal(payload)

			resp, err := authedRequest("POST", "/companies", body)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&email, "email", "", "company email")
	cmd.Flags().StringVar(&country, "country", "", "company country")
	cmd.Flags().StringVar(&sector, "sector", "", "company sector")

	return cmd
}

// ==========================
// TOGGLE ACTIVE
// ==========================
func toggleCompanyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Toggle a company's active flag",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("POST", "/companies/"+args[0]+"/toggle-active", nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}
}

// ==========================
// RESET PASSWORD
// ==========================
func resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password [id]",
		Short: "Reset a company's password (new one is emailed)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("POST", "/companies/"+args[0]+"/reset-password", nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == 200 {
				fmt.Println("Password reset")
			} else {
				fmt.Println("Failed to reset password")
			}
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteCompanyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a company",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("DELETE", "/companies/"+args[0], nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == 204 {
				fmt.Println("Company deleted")
			} else {
				fmt.Println("Failed to delete company")
			}
		},
	}
}
