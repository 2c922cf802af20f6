// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize coerces loosely-typed model output into ProfessorRecords.
//
// The model's output is not schema-enforced, so normalization is lenient:
// only matchReason and researchInterests are defaulted, every other field
// passes through or falls back to its zero value, and nothing is rejected.
package normalize

import (
	"fmt"
	"time"

	"github.com/pdiddy/advisor-search/pkg/types"
)

// FallbackMatchReason replaces an absent or empty matchReason.
const FallbackMatchReason = "Matched based on keywords."

// ListFields are the object keys checked, in order, when the reply is an
// object wrapping the result list instead of a bare array. Providers do not
// guarantee a name, so this is best-effort.
var ListFields = []string{"professors", "results", "items", "data"}

// Normalizer turns parsed JSON into records. Now stamps batch IDs; nil
// means time.Now.
type Normalizer struct {
	Now func() time.Time
}

// Records resolves data to a list and normalizes each element. A payload
// that is not list-shaped yields an empty, non-nil slice.
func (n Normalizer) Records(data any) []types.ProfessorRecord {
	list := Resolve(data)

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	stamp := now().UnixMilli()

	records := make([]types.ProfessorRecord, 0, len(list))
	for i, elem := range list {
		obj, _ := elem.(map[string]any)
		records = append(records, record(obj, fmt.Sprintf("prof-%d-%d", i, stamp)))
	}
	return records
}

// Resolve applies the list resolution rule: a list is used directly, an
// object is unwrapped through the first list-valued field in ListFields,
// anything else is empty.
func Resolve(data any) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range ListFields {
			if list, ok := v[key].([]any); ok {
				return list
			}
		}
	}
	return []any{}
}

// record builds one ProfessorRecord. obj may be nil for non-object elements.
func record(obj map[string]any, id string) types.ProfessorRecord {
	r := types.ProfessorRecord{
		ID:                id,
		Name:              str(obj, "name"),
		University:        str(obj, "university"),
		Department:        str(obj, "department"),
		MatchScore:        number(obj, "matchScore"),
		MatchReason:       str(obj, "matchReason"),
		WebsiteURL:        str(obj, "websiteUrl"),
		ResearchInterests: strs(obj, "researchInterests"),
		Summary:           str(obj, "summary"),
		RelevantPapers:    strs(obj, "relevantPapers"),
	}
	if r.MatchReason == "" {
		r.MatchReason = FallbackMatchReason
	}
	if r.ResearchInterests == nil {
		r.ResearchInterests = []string{}
	}
	if len(r.RelevantPapers) == 0 {
		r.RelevantPapers = nil
	}
	return r
}

func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func number(obj map[string]any, key string) float64 {
	f, _ := obj[key].(float64)
	return f
}

// strs returns the string elements of a list field, or nil when the field
// is not a list. Non-string elements are dropped.
func strs(obj map[string]any, key string) []string {
	list, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
