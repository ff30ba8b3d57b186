package crons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crucial707/market-supervisor/cmd/cli/config"
	"github.com/crucial707/market-supervisor/cmd/cli/output"
)

// ==========================
// Init Crons
// ==========================
func InitCrons(rootCmd *cobra.Command) {

	cronsCmd := &cobra.Command{
		Use:   "crons",
		Short: "Manage saved recurring searches",
	}

	cronsCmd.AddCommand(
		listCronsCmd(),
		createCronCmd(),
		executeCronCmd(),
		toggleCronCmd(),
		deleteCronCmd(),
	)

	rootCmd.AddCommand(cronsCmd)
}

func authedRequest(method, path string, body []byte) (*http.Response, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}
	req, err := http.NewRequest(method, config.APIURL()+path, bytes.NewBuffer(body))
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
func listCronsCmd() *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List crons",
		Run: func(cmd *cobra.Command, args []string) {

			path := "/crons"
			if companyID != "" {
				path = "/crons/company/" + companyID
			}

			resp, err := authedRequest("GET", path, nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			type cron struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Keywords    string `json:"keywords"`
				Frequency   string `json:"frequency"`
				IsActive    bool   `json:"is_active"`
				SearchCount int    `json:"search_count"`
			}

			var list []cron
			if companyID != "" {
				if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
					fmt.Println(err)
					return
				}
			} else {
				var out struct {
					Crons []cron `json:"crons"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
					fmt.Println(err)
					return
				}
				list = out.Crons
			}

			rows := make([][]interface{}, 0, len(list))
			for _, c := range list {
				rows = append(rows, []interface{}{c.ID, c.Name, c.Keywords, c.Frequency, c.IsActive, c.SearchCount})
			}
			output.RenderTable([]string{"ID", "Name", "Keywords", "Frequency", "Active", "Runs"}, rows)
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "only list crons for this company id")

	return cmd
}

// ==========================
// CREATE
// ==========================
func createCronCmd() *cobra.Command {

	var companyID string
	var name string
	var description string
	var keywords string
	var frequency string
	var tags string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a cron",
		Run: func(cmd *cobra.Command, args []string) {

			payload := map[string]any{
				"company_id":  companyID,
				"name":        name,
				"description": description,
				"keywords":    keywords,
				"frequency":   frequency,
			}
			if tags != "" {
				var list []string
				for _, t := range strings.Split(tags, ",") {
					if t = strings.TrimSpace(t); t != "" {
						list = append(list, t)
					}
				}
				payload["tags"] = list
			}
			body, _ := json.Marshal(payload)

			resp, err := authedRequest("POST", "/crons", body)
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

	cmd.Flags().StringVar(&companyID, "company", "", "owning company id")
	cmd.Flags().StringVar(&name, "name", "", "cron name (unique per company)")
	cmd.Flags().StringVar(&description, "description", "", "cron description")
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma-separated search keywords")
	cmd.Flags().StringVar(&frequency, "frequency", "daily", "daily, weekly, biweekly or monthly")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")

	return cmd
}

// ==========================
// EXECUTE
// ==========================
func executeCronCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "execute [id]",
		Short: "Execute a cron immediately",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			path := ""
			switch {
			case all:
				path = "/crons/execute-all"
			case len(args) == 1:
				path = "/crons/" + args[0] + "/execute"
			default:
				fmt.Println("Provide a cron id or --all")
				return
			}

			resp, err := authedRequest("POST", path, nil)
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

	cmd.Flags().BoolVar(&all, "all", false, "execute every active cron")

	return cmd
}

// ==========================
// TOGGLE ACTIVE
// ==========================
func toggleCronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Toggle a cron's active flag",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("POST", "/crons/"+args[0]+"/toggle-active", nil)
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
// DELETE
// ==========================
func deleteCronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a cron",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("DELETE", "/crons/"+args[0], nil)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == 204 {
				fmt.Println("Cron deleted")
			} else {
				fmt.Println("Failed to delete cron")
			}
		},
	}
}
