// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.UnixMilli(1700000000000) }

func parse(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestRecordsMinimalElement(t *testing.T) {
	n := Normalizer{Now: fixedNow}
	records := n.Records(parse(t, `[{"name":"A"}]`))

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "A", r.Name)
	assert.Equal(t, FallbackMatchReason, r.MatchReason)
	assert.NotNil(t, r.ResearchInterests)
	assert.Empty(t, r.ResearchInterests)
	assert.Equal(t, "", r.University)
	assert.Equal(t, float64(0), r.MatchScore)
	assert.Nil(t, r.RelevantPapers)
}

func TestRecordsFullElement(t *testing.T) {
	n := Normalizer{Now: fixedNow}
	records := n.Records(parse(t, `[{
		"name": "Jane Doe",
		"university": "MIT",
		"department": "EECS",
		"matchScore": 95,
		"matchReason": "Leads a vision lab.",
		"websiteUrl": "https://example.edu/jane",
		"researchInterests": ["CV", "ML", 7],
		"summary": "Works on 3D perception.",
		"relevantPapers": ["Paper One"]
	}]`))

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "prof-0-1700000000000", r.ID)
	assert.Equal(t, "MIT", r.University)
	assert.Equal(t, "EECS", r.Department)
	assert.Equal(t, float64(95), r.MatchScore)
	assert.Equal(t, "Leads a vision lab.", r.MatchReason)
	assert.Equal(t, "https://example.edu/jane", r.WebsiteURL)
	assert.Equal(t, []string{"CV", "ML"}, r.ResearchInterests)
	assert.Equal(t, "Works on 3D perception.", r.Summary)
	assert.Equal(t, []string{"Paper One"}, r.RelevantPapers)
}

func TestRecordsCoercions(t *testing.T) {
	n := Normalizer{Now: fixedNow}
	records := n.Records(parse(t, `[
		{"name":"A","matchReason":"","researchInterests":"CV, ML"},
		{"name":"B","matchScore":"90","researchInterests":null},
		"just a string"
	]`))

	require.Len(t, records, 3)
	assert.Equal(t, FallbackMatchReason, records[0].MatchReason)
	assert.Equal(t, []string{}, records[0].ResearchInterests)
	assert.Equal(t, float64(0), records[1].MatchScore)
	assert.Equal(t, []string{}, records[1].ResearchInterests)
	assert.Equal(t, "", records[2].Name)
	assert.Equal(t, FallbackMatchReason, records[2].MatchReason)
}

func TestRecordsUniqueIDs(t *testing.T) {
	n := Normalizer{Now: fixedNow}
	records := n.Records(parse(t, `[{"name":"A"},{"name":"A"},{"name":"A"}]`))

	seen := map[string]bool{}
	for _, r := range records {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantLen int
	}{
		{"array", `[{"name":"A"},{"name":"B"}]`, 2},
		{"professors field", `{"professors":[{"name":"A"}]}`, 1},
		{"results field", `{"results":[{"name":"A"},{"name":"B"}]}`, 2},
		{"first list-valued field wins", `{"professors":"none","data":[{"name":"A"}]}`, 1},
		{"object without list", `{"name":"A"}`, 0},
		{"number", `42`, 0},
		{"null", `null`, 0},
		{"empty array", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Resolve(parse(t, tt.payload))
			assert.NotNil(t, list)
			assert.Len(t, list, tt.wantLen)
		})
	}
}

func TestRecordsShapeMismatchIsEmpty(t *testing.T) {
	records := Normalizer{}.Records(parse(t, `{"message":"no results"}`))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
