// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pdiddy/advisor-search/pkg/types"
)

// EmptyMessage is shown when a search completes with no matches.
const EmptyMessage = "No professors found. Try broadening your terms or using more general field names."

var (
	scoreHigh = color.New(color.FgGreen, color.Bold)
	scoreMid  = color.New(color.FgBlue, color.Bold)
	scoreLow  = color.New(color.FgYellow, color.Bold)
	nameStyle = color.New(color.Bold)
	dimStyle  = color.New(color.Faint)
)

// Heading returns the title shown above a non-empty result list.
func Heading(n int) string {
	return fmt.Sprintf("Top Matches (%d), sorted by AI match score", n)
}

// scoreColor picks the badge colour: green from 90, blue from 80, yellow below.
func scoreColor(score float64) *color.Color {
	switch {
	case score >= 90:
		return scoreHigh
	case score >= 80:
		return scoreMid
	default:
		return scoreLow
	}
}

// FormatCards writes records as ranked result cards to w.
func FormatCards(records []types.ProfessorRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}

	fmt.Fprintln(w, Heading(len(records)))
	fmt.Fprintln(w)

	for i, r := range records {
		badge := scoreColor(r.MatchScore).Sprintf("[%.0f%% match]", r.MatchScore)
		fmt.Fprintf(w, "%2d. %s  %s\n", i+1, nameStyle.Sprint(r.Name), badge)

		affiliation := r.University
		if r.Department != "" {
			affiliation += " · " + r.Department
		}
		if affiliation != "" {
			fmt.Fprintf(w, "    %s\n", affiliation)
		}
		fmt.Fprintf(w, "    Why: %s\n", r.MatchReason)
		if r.Summary != "" {
			fmt.Fprintf(w, "    %s\n", r.Summary)
		}
		if len(r.ResearchInterests) > 0 {
			fmt.Fprintf(w, "    Interests: %s\n", strings.Join(r.ResearchInterests, ", "))
		}
		for _, p := range r.RelevantPapers {
			fmt.Fprintf(w, "    Paper: %s\n", p)
		}
		if r.WebsiteURL != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Sprint(r.WebsiteURL))
		}
		fmt.Fprintln(w)
	}
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.ProfessorRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}

	fmt.Fprintf(w, "%-4s  %-28s  %-32s  %-5s  %s\n",
		"Rank", "Name", "University", "Score", "Website")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-28s  %-32s  %-5.0f  %s\n",
			i+1, truncate(r.Name, 28), truncate(r.University, 32), r.MatchScore, r.WebsiteURL)
	}

	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as an indented JSON array to w. An empty
// result is written as [].
func FormatJSON(records []types.ProfessorRecord, w io.Writer) error {
	if records == nil {
		records = []types.ProfessorRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
