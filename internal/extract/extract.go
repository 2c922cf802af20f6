// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract isolates the JSON payload inside a model reply.
//
// Providers wrap structured output inconsistently: sometimes bare, sometimes
// in a ```json fence, sometimes in an untagged fence surrounded by prose.
// Extraction is an ordered list of strategies; the first one that finds a
// candidate wins. No attempt is made to repair the JSON itself.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Strategy locates a candidate JSON substring in raw reply text.
type Strategy struct {
	Name string
	Find func(text string) (string, bool)
}

var (
	// fencedJSONRe matches a fence explicitly tagged json (any case).
	fencedJSONRe = regexp.MustCompile("(?is)```json\\b(.*?)```")

	// fencedAnyRe matches any fence, skipping a bare info-string line such
	// as "javascript" right after the opening backticks.
	fencedAnyRe = regexp.MustCompile("(?s)```(?:[\\w+.-]*[ \\t]*\\r?\\n)?(.*?)```")
)

// Strategies is the extraction precedence: tagged fence, any fence, raw text.
var Strategies = []Strategy{
	{Name: "fenced-json", Find: findFencedJSON},
	{Name: "fenced-any", Find: findFencedAny},
	{Name: "raw", Find: findRaw},
}

func findFencedJSON(text string) (string, bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func findFencedAny(text string) (string, bool) {
	m := fencedAnyRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// findRaw always succeeds and returns the text unmodified.
func findRaw(text string) (string, bool) {
	return text, true
}

// Candidate returns the JSON candidate chosen by the first matching strategy
// and that strategy's name.
func Candidate(text string) (string, string) {
	for _, s := range Strategies {
		if c, ok := s.Find(text); ok {
			return c, s.Name
		}
	}
	return text, "raw"
}

// ParseError reports a candidate that is not valid JSON. It indicates a
// defect in the model output, not a transient condition.
type ParseError struct {
	Strategy string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s candidate as JSON: %v", e.Strategy, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts the candidate from text and decodes it into generic JSON
// values (maps, slices, float64, string, bool, nil).
func Parse(text string) (any, error) {
	candidate, strategy := Candidate(text)

	var data any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil, &ParseError{Strategy: strategy, Err: err}
	}
	return data, nil
}
