// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the advisor-search pipeline:
// the search request a caller builds, the normalized professor record the
// pipeline returns, and the configuration structs for each stage.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// MaxKeywords is the largest number of keywords a single search accepts.
const MaxKeywords = 5

// RankingRanges lists the ranking filters offered to users. Any free text is
// still accepted; these are suggestions for help text and forms.
var RankingRanges = []string{"Top 10", "Top 25", "Top 50", "Top 100"}

// ErrInvalidRequest is wrapped by every SearchRequest validation failure.
var ErrInvalidRequest = errors.New("invalid search request")

// SearchFilters narrows a search by university ranking and department.
// Empty values fall back to prompt defaults.
type SearchFilters struct {
	RankingRange string `json:"rankingRange" yaml:"ranking_range"`
	Department   string `json:"department" yaml:"department"`
}

// SearchRequest is one user-initiated search: between one and MaxKeywords
// unique, non-blank keywords plus filters.
type SearchRequest struct {
	Keywords []string      `json:"keywords" yaml:"keywords"`
	Filters  SearchFilters `json:"filters" yaml:"filters"`
}

// NewSearchRequest trims keywords and filters and validates the result.
func NewSearchRequest(keywords []string, filters SearchFilters) (SearchRequest, error) {
	req := SearchRequest{
		Keywords: make([]string, 0, len(keywords)),
		Filters: SearchFilters{
			RankingRange: strings.TrimSpace(filters.RankingRange),
			Department:   strings.TrimSpace(filters.Department),
		},
	}
	for _, kw := range keywords {
		req.Keywords = append(req.Keywords, strings.TrimSpace(kw))
	}
	if err := req.Validate(); err != nil {
		return SearchRequest{}, err
	}
	return req, nil
}

// Validate checks the keyword invariants. It does not trim; use
// NewSearchRequest for raw user input.
func (r SearchRequest) Validate() error {
	if len(r.Keywords) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", ErrInvalidRequest)
	}
	if len(r.Keywords) > MaxKeywords {
		return fmt.Errorf("%w: at most %d keywords are allowed, got %d", ErrInvalidRequest, MaxKeywords, len(r.Keywords))
	}
	seen := make(map[string]bool, len(r.Keywords))
	for i, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: keyword %d is blank", ErrInvalidRequest, i+1)
		}
		if seen[kw] {
			return fmt.Errorf("%w: duplicate keyword %q", ErrInvalidRequest, kw)
		}
		seen[kw] = true
	}
	return nil
}

// ProfessorRecord is a normalized professor returned by a search.
// ID is unique within one result batch only.
type ProfessorRecord struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	University        string   `json:"university" yaml:"university"`
	Department        string   `json:"department,omitempty" yaml:"department,omitempty"`
	MatchScore        float64  `json:"matchScore" yaml:"match_score"`
	MatchReason       string   `json:"matchReason" yaml:"match_reason"`
	WebsiteURL        string   `json:"websiteUrl" yaml:"website_url"`
	ResearchInterests []string `json:"researchInterests" yaml:"research_interests"`
	Summary           string   `json:"summary" yaml:"summary"`

	// RelevantPapers is passed through when the model supplies it.
	RelevantPapers []string `json:"relevantPapers,omitempty" yaml:"relevant_papers,omitempty"`
}
