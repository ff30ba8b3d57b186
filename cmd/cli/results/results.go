package results

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
// Init Results
// ==========================
func InitResults(rootCmd *cobra.Command) {

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect stored search results",
	}

	resultsCmd.AddCommand(
		listResultsCmd(),
		recentResultsCmd(),
		statsCmd(),
	)

	rootCmd.AddCommand(resultsCmd)
}

func authedRequest(method, path string) (*http.Response, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("please login first")
	}
	req, err := http.NewRequest(method, config.APIURL()+path, bytes.NewBuffer(nil))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultClient.Do(req)
}

type result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	SearchDate string `json:"search_date"`
}

func renderResults(resp *http.Response) {
	var list []result
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		fmt.Println(err)
		return
	}
	rows := make([][]interface{}, 0, len(list))
	for _, r := range list {
		rows = append(rows, []interface{}{r.ID, r.Title, r.URL, r.Source, r.SearchDate})
	}
	output.RenderTable([]string{"ID", "Title", "URL", "Source", "Date"}, rows)
}

// ==========================
// LIST
// ==========================
func listResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [cron-id]",
		Short: "List all results for a cron",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("GET", "/search-results/cron/"+args[0])
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()
			renderResults(resp)
		},
	}
}

// ==========================
// RECENT
// ==========================
func recentResultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent [cron-id]",
		Short: "List the most recent results for a cron",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			path := fmt.Sprintf("/search-results/cron/%s/recent?limit=%d", args[0], limit)
			resp, err := authedRequest("GET", path)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()
			renderResults(resp)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of results")

	return cmd
}

// ==========================
// STATS
// ==========================
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [cron-id]",
		Short: "Show aggregate result stats for a cron",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			resp, err := authedRequest("GET", "/search-results/cron/"+args[0]+"/stats")
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
