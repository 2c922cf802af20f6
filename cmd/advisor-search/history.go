// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/search"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show, and export recorded searches",
	Long: `History reads the local SQLite database written by "search --record" and
by "serve" when recording is enabled. Recorded searches are never reused in
place of a new search.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded searches, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	keyword, _ := cmd.Flags().GetString("keyword")
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), history.ListOptions{Keyword: keyword, Limit: limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if entries == nil {
			entries = []history.Entry{}
		}
		return writeJSON(out, entries)
	}
	formatHistoryTable(entries, out)
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded search with its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, entry)
	}

	fmt.Fprintf(out, "Search %s\n", entry.ID)
	fmt.Fprintf(out, "  When:      %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Keywords:  %s\n", strings.Join(entry.Keywords, ", "))
	if entry.RankingRange != "" {
		fmt.Fprintf(out, "  Ranking:   %s\n", entry.RankingRange)
	}
	if entry.Department != "" {
		fmt.Fprintf(out, "  Department: %s\n", entry.Department)
	}
	fmt.Fprintf(out, "  Provider:  %s (%d attempt(s))\n", entry.Provider, entry.Attempts)
	if entry.Status == history.StatusError {
		fmt.Fprintf(out, "  Failed:    %s\n\n", entry.ErrorKind)
		return nil
	}
	fmt.Fprintln(out)
	search.FormatCards(entry.Results, out)
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded searches with their results",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	keyword, _ := cmd.Flags().GetString("keyword")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	opts := history.ListOptions{Keyword: keyword}
	switch format {
	case "yaml", "yml":
		err = store.ExportYAML(context.Background(), opts, w)
	case "json":
		err = store.ExportJSON(context.Background(), opts, w)
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported history to %s\n", output)
	}
	return nil
}

func formatHistoryTable(entries []history.Entry, w io.Writer) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded searches.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-7s  %-7s  %s\n", "ID", "When", "Status", "Results", "Keywords")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-16s  %-7s  %-7d  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.ResultCount, strings.Join(e.Keywords, ", "))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	historyListCmd.Flags().String("keyword", "", "only searches whose keywords contain this text")
	historyListCmd.Flags().Int("limit", 0, "maximum number of searches (default from history.max_results)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyShowCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("keyword", "", "only searches whose keywords contain this text")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
