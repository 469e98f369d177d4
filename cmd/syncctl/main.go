package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rankstack/rankstack-sync/internal/store/restapi"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "syncctl",
		Short: "CLI client for the rankstack sync service REST API",
	}
)

// client builds the API client for the configured endpoint.
func client() *restapi.Client {
	return restapi.NewClient(apiFlag, 30*time.Second)
}

// printJSON renders a response value for the terminal.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func main() {
	defaultAPI := getEnv("RANKSTACK_SYNC_API_URL", "http://localhost:11600")
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", defaultAPI, "Sync service base URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
