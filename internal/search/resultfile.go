// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/advisor-search/pkg/types"
)

// ResultFile is the on-disk representation of a search and its results.
// A saved search can be rendered again without calling the model.
type ResultFile struct {
	Query   ResultQuery             `yaml:"query"`
	Config  ResultConfig            `yaml:"config"`
	Results []types.ProfessorRecord `yaml:"results"`
	Summary ResultSummary           `yaml:"summary"`
}

// ResultQuery stores the request in a serializable form.
type ResultQuery struct {
	Keywords     []string `yaml:"keywords"`
	RankingRange string   `yaml:"ranking_range,omitempty"`
	Department   string   `yaml:"department,omitempty"`
}

// ResultConfig stores the settings that produced the results.
type ResultConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model,omitempty"`
	ResultCount int    `yaml:"result_count,omitempty"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Total     int       `yaml:"total"`
	Attempts  int       `yaml:"attempts"`
	Timestamp time.Time `yaml:"timestamp"`
}

// NewResultFile builds a result file from a successful report.
func NewResultFile(rep Report, cfg ResultConfig, now time.Time) ResultFile {
	records := rep.Records
	if records == nil {
		records = []types.ProfessorRecord{}
	}
	return ResultFile{
		Query: ResultQuery{
			Keywords:     rep.Request.Keywords,
			RankingRange: rep.Request.Filters.RankingRange,
			Department:   rep.Request.Filters.Department,
		},
		Config:  cfg,
		Results: records,
		Summary: ResultSummary{
			Total:     len(records),
			Attempts:  rep.Attempts,
			Timestamp: now,
		},
	}
}

// WriteResultFile saves rf to path as YAML.
func WriteResultFile(path string, rf ResultFile) error {
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// ToRequest converts the stored query back into a validated request.
func (q ResultQuery) ToRequest() (types.SearchRequest, error) {
	return types.NewSearchRequest(q.Keywords, types.SearchFilters{
		RankingRange: q.RankingRange,
		Department:   q.Department,
	})
}
