// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchRequestTrims(t *testing.T) {
	req, err := NewSearchRequest(
		[]string{"  Computer Vision ", "ML"},
		SearchFilters{RankingRange: " Top 25 ", Department: "Computer Science\n"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Computer Vision", "ML"}, req.Keywords)
	assert.Equal(t, "Top 25", req.Filters.RankingRange)
	assert.Equal(t, "Computer Science", req.Filters.Department)
}

func TestNewSearchRequestRejects(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
	}{
		{"no keywords", nil},
		{"six keywords", []string{"a", "b", "c", "d", "e", "f"}},
		{"blank keyword", []string{"robotics", "   "}},
		{"duplicate after trim", []string{"robotics", " robotics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchRequest(tt.keywords, SearchFilters{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestNewSearchRequestAcceptsFive(t *testing.T) {
	req, err := NewSearchRequest([]string{"a", "b", "c", "d", "e"}, SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, req.Keywords, MaxKeywords)
}

func TestValidateIsCaseSensitive(t *testing.T) {
	req := SearchRequest{Keywords: []string{"NLP", "nlp"}}
	assert.NoError(t, req.Validate())
}
