package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/bookscan/internal/infrastructure/config"
	"github.com/iho/bookscan/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookscan-cli",
		Short: "Bookscan CLI tool",
		Long:  `A command line interface for the bookscan document scanner API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the bookscan API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")

	var force bool
	scanCmd := &cobra.Command{
		Use:   "scan BOOK",
		Short: "Scan a book's document directories and record new moves",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runScan(args[0], force)
		},
	}
	scanCmd.Flags().BoolVar(&force, "force", false, "Bypass the already-recorded document filter")
	rootCmd.AddCommand(scanCmd)

	var years []int
	exportCmd := &cobra.Command{
		Use:   "export BOOK",
		Short: "Export a book's lines as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runExport(args[0], years)
		},
	}
	exportCmd.Flags().IntSliceVarP(&years, "year", "y", nil, "Restrict export to years")
	rootCmd.AddCommand(exportCmd)

	migrateCmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		Run: func(cmd *cobra.Command, args []string) {
			runMigrate(args[0])
		},
	}
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runScan(bookID string, force bool) {
	client := &http.Client{Timeout: timeout}

	endpoint := fmt.Sprintf("%s/api/v1/books/%s/scan", baseURL, url.PathEscape(bookID))
	if force {
		endpoint += "?force=true"
	}

	resp, err := client.Post(endpoint, "application/json", nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Scan FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var report struct {
		Journals struct {
			Processed int `json:"processed"`
			Skipped   int `json:"skipped"`
			Failed    int `json:"failed"`
		} `json:"journals"`
		RuleSets struct {
			Processed int `json:"processed"`
			Skipped   int `json:"skipped"`
			Failed    int `json:"failed"`
		} `json:"rule_sets"`
		Moves int `json:"moves"`
		Lines int `json:"lines"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scan completed\n")
	fmt.Printf("Journal pass:  %d processed, %d skipped, %d failed\n",
		report.Journals.Processed, report.Journals.Skipped, report.Journals.Failed)
	fmt.Printf("Rule-set pass: %d processed, %d skipped, %d failed\n",
		report.RuleSets.Processed, report.RuleSets.Skipped, report.RuleSets.Failed)
	fmt.Printf("Recorded: %d moves, %d lines\n", report.Moves, report.Lines)
}

func runMigrate(direction string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	switch direction {
	case "up":
		err = postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	case "down":
		err = postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
	default:
		fmt.Printf("Unknown direction %q, want up or down\n", direction)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed")
}

func runExport(bookID string, years []int) {
	client := &http.Client{Timeout: timeout}

	endpoint := fmt.Sprintf("%s/api/v1/books/%s/export", baseURL, url.PathEscape(bookID))
	if len(years) > 0 {
		parts := make([]string, len(years))
		for i, y := range years {
			parts[i] = strconv.Itoa(y)
		}
		endpoint += "?years=" + strings.Join(parts, ",")
	}

	resp, err := client.Get(endpoint)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("Export FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		fmt.Printf("Error reading response: %v\n", err)
		os.Exit(1)
	}
}
