// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/advisor-search/internal/backoff"
	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/search"
	"github.com/pdiddy/advisor-search/internal/transport"
	"github.com/pdiddy/advisor-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for professors matching research keywords",
	Long: `Search asks the configured language model for professors whose research
matches one to five keywords. Results are sorted by the model's match score.

Ranking ranges offered by the form: ` + strings.Join(types.RankingRanges, ", ") + `.
Any other text is passed through to the model unchanged.

Use --load to print a previously saved result file without calling the model.`,
	Example: `  advisor-search search -k "Computer Vision" -k "Machine Learning" --ranking "Top 25" --department "Computer Science"
  advisor-search search -k robotics --json --save robotics.yaml
  advisor-search search --load robotics.yaml --table`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayP("keyword", "k", nil, "research keyword (repeat up to 5 times)")
	searchCmd.Flags().String("ranking", "", "university ranking range, e.g. \"Top 25\" (default \"Top 50\")")
	searchCmd.Flags().String("department", "", "department filter (default \"relevant departments\")")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("table", false, "output results as a table")
	searchCmd.Flags().String("save", "", "save the search and its results to a YAML file")
	searchCmd.Flags().String("load", "", "print results from a saved YAML file instead of searching")
	searchCmd.Flags().Bool("record", false, "record the search in the history database")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")
	asTable, _ := cmd.Flags().GetBool("table")

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		rf, err := search.ReadResultFile(loadPath)
		if err != nil {
			return err
		}
		saved, err := rf.Query.ToRequest()
		if err != nil {
			return fmt.Errorf("%s: %w", loadPath, err)
		}
		if !asJSON {
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %s for %s (saved %s)\n",
				rf.Config.Provider, strings.Join(saved.Keywords, ", "), rf.Summary.Timestamp.Format(time.RFC3339))
		}
		return render(out, rf.Results, asJSON, asTable)
	}

	keywords, _ := cmd.Flags().GetStringArray("keyword")
	ranking, _ := cmd.Flags().GetString("ranking")
	department, _ := cmd.Flags().GetString("department")

	req, err := types.NewSearchRequest(splitKeywords(keywords), types.SearchFilters{
		RankingRange: ranking,
		Department:   department,
	})
	if err != nil {
		return err
	}

	searcher, err := newSearcher(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !asJSON {
		fmt.Fprintf(cmd.ErrOrStderr(), "Searching %s for %s...\n", searcher.Backend.Name(), strings.Join(req.Keywords, ", "))
	}
	rep := searcher.Run(ctx, req)
	log.WithField("outcome", rep.Describe()).Debug("search finished")

	if record, _ := cmd.Flags().GetBool("record"); record {
		if err := recordSearch(ctx, rep); err != nil {
			log.WithError(err).Warn("recording search failed")
		}
	}

	if rep.Err != nil {
		return rep.Err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		rf := search.NewResultFile(rep, search.ResultConfig{
			Provider:    string(cfg.AI.Provider),
			Model:       cfg.AI.Model,
			ResultCount: cfg.Prompt.ResultCount,
		}, time.Now())
		if err := search.WriteResultFile(savePath, rf); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d result(s) to %s\n", len(rep.Records), savePath)
	}

	return render(out, rep.Records, asJSON, asTable)
}

// newSearcher wires a Searcher for c. hooks may be nil.
func newSearcher(c types.Config, hooks search.Hooks) (*search.Searcher, error) {
	gen, err := transport.New(c.AI, nil)
	if err != nil {
		return nil, err
	}
	return &search.Searcher{
		Backend: gen,
		Prompt:  c.Prompt,
		Policy: backoff.Policy{
			BaseDelay:  c.AI.BaseDelay,
			MaxRetries: c.AI.MaxRetries,
		},
		Logger: log,
		Hooks:  hooks,
	}, nil
}

func recordSearch(ctx context.Context, rep search.Report) error {
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	// A canceled search is still recorded.
	entry, err := store.Record(context.WithoutCancel(ctx), history.FromReport(rep, string(cfg.AI.Provider)))
	if err != nil {
		return err
	}
	log.WithField("id", entry.ID).Info("search recorded")
	return nil
}

// splitKeywords accepts both repeated flags and comma-separated values.
func splitKeywords(raw []string) []string {
	var out []string
	for _, r := range raw {
		out = append(out, strings.Split(r, ",")...)
	}
	return out
}

func render(w io.Writer, records []types.ProfessorRecord, asJSON, asTable bool) error {
	switch {
	case asJSON:
		return search.FormatJSON(records, w)
	case asTable:
		search.FormatTable(records, w)
	default:
		search.FormatCards(records, w)
	}
	return nil
}
