// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2jpg/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished conversion jobs",
	Long: `History lists jobs recorded in the local history database and shows the
per-document outcome of a single job.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openHistory(viper.GetViper())
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(context.Background(), limit)
		if err != nil {
			return err
		}
		formatHistoryList(os.Stdout, records)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one job as YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		store, err := openHistory(viper.GetViper())
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		switch format {
		case "yaml", "":
			return history.ExportYAML(os.Stdout, rec)
		case "json":
			return history.ExportJSON(os.Stdout, rec)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
	},
}

func formatHistoryList(w io.Writer, records []history.JobRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No jobs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-24s  %4s  %4s  %4s  %4s\n",
		"ID", "Finished", "Name", "Done", "Fail", "Skip", "Canc")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range records {
		name := r.Name
		if rs := []rune(name); len(rs) > 24 {
			name = string(rs[:21]) + "..."
		}
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-24s  %4d  %4d  %4d  %4d\n",
			r.ID, finished, name,
			r.Summary.Completed, r.Summary.Failed, r.Summary.Skipped, r.Summary.Cancelled)
	}

	fmt.Fprintf(w, "\n%d jobs\n", len(records))
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of jobs to list")
	historyShowCmd.Flags().String("format", "yaml", "output format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
