package main

import (
	"fmt"
	"os"

	"github.com/crucial707/market-supervisor/cmd/cli/auth"
	"github.com/crucial707/market-supervisor/cmd/cli/companies"
	"github.com/crucial707/market-supervisor/cmd/cli/crons"
	"github.com/crucial707/market-supervisor/cmd/cli/results"
	"github.com/crucial707/market-supervisor/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()

	auth.InitAuth(rootCmd)
	companies.InitCompanies(rootCmd)
	crons.InitCrons(rootCmd)
	results.InitResults(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
