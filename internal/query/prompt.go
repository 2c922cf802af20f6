// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds the natural-language prompt sent to the generation
// API for one search.
package query

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/advisor-search/pkg/types"
)

const (
	// DefaultRankingRange is used when the request has no ranking filter.
	DefaultRankingRange = "Top 50"

	// DefaultDepartment is used when the request has no department filter.
	DefaultDepartment = "relevant departments"

	// DefaultResultCount is how many professors the prompt asks for.
	DefaultResultCount = 5
)

// ResultKeys is the exact key set the model is told to emit, in order.
var ResultKeys = []string{
	"name",
	"university",
	"department",
	"matchScore",
	"matchReason",
	"websiteUrl",
	"researchInterests",
	"summary",
}

// DefaultTemplate is the built-in prompt. Counts and length hints are kept
// small so replies stay cheap and quota errors stay rare.
const DefaultTemplate = `Find {{.ResultCount}} distinct professors in the US matching these criteria:
1. Interests: {{.Keywords}}.
2. Ranking: {{.RankingRange}}.
3. Dept: {{.Department}}.

Calculate "matchScore" (0-100) for each professor:
- 60%: relevance of their research to the interests above.
- 25%: recency of their publications on these topics (last 5 years weigh most).
- 15%: how central these topics are to their group's focus.

Output strictly as a JSON array of {{.ResultCount}} objects. Keys:
- "name"
- "university"
- "department"
- "matchScore" (number)
- "matchReason" (Max 10 words)
- "websiteUrl"
- "researchInterests" (Array of 3 strings)
- "summary" (Max 15 words)
Do not include any text outside the JSON array.
`

var defaultTmpl = template.Must(template.New("prompt").Parse(DefaultTemplate))

// promptData is the value a prompt template executes against.
type promptData struct {
	Keywords     string
	KeywordList  []string
	RankingRange string
	Department   string
	ResultCount  int
	Keys         string
}

// Build renders the prompt for req. With the built-in template it never
// fails; a custom cfg.Template that does not parse or execute returns an error.
func Build(req types.SearchRequest, cfg types.PromptConfig) (string, error) {
	tmpl := defaultTmpl
	if cfg.Template != "" {
		t, err := template.New("custom").Parse(cfg.Template)
		if err != nil {
			return "", fmt.Errorf("parsing prompt template: %w", err)
		}
		tmpl = t
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newPromptData(req, cfg)); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

func newPromptData(req types.SearchRequest, cfg types.PromptConfig) promptData {
	ranking := req.Filters.RankingRange
	if ranking == "" {
		ranking = DefaultRankingRange
	}
	department := req.Filters.Department
	if department == "" {
		department = DefaultDepartment
	}
	count := cfg.ResultCount
	if count <= 0 {
		count = DefaultResultCount
	}

	return promptData{
		Keywords:     strings.Join(req.Keywords, ", "),
		KeywordList:  req.Keywords,
		RankingRange: ranking,
		Department:   department,
		ResultCount:  count,
		Keys:         strings.Join(ResultKeys, ", "),
	}
}
