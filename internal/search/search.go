// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs the professor search pipeline: build the prompt, call
// the generation backend, extract and normalize the reply, and retry with
// exponential backoff when the backend reports a quota failure.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/advisor-search/internal/backoff"
	"github.com/pdiddy/advisor-search/internal/extract"
	"github.com/pdiddy/advisor-search/internal/normalize"
	"github.com/pdiddy/advisor-search/internal/query"
	"github.com/pdiddy/advisor-search/internal/transport"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// Kind classifies a failed search.
type Kind string

const (
	KindQuota    Kind = "quota"
	KindFetch    Kind = "fetch"
	KindParse    Kind = "parse"
	KindConfig   Kind = "config"
	KindInvalid  Kind = "invalid"
	KindCanceled Kind = "canceled"
)

// User-facing messages. Raw provider text never reaches the caller.
const (
	MsgQuota    = "Server is busy (Quota Exceeded). Please try searching for fewer keywords or try again in 1 minute."
	MsgParse    = "Failed to parse professor data."
	MsgFetch    = "Failed to fetch professor data."
	MsgConfig   = "Search is not configured: an API key is required."
	MsgCanceled = "Search was cancelled."
)

var messages = map[Kind]string{
	KindQuota:    MsgQuota,
	KindFetch:    MsgFetch,
	KindParse:    MsgParse,
	KindConfig:   MsgConfig,
	KindCanceled: MsgCanceled,
}

// Error is the failure outcome of a search. Error() returns only the fixed
// message; the cause is available through Unwrap for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, cause error) *Error {
	msg, ok := messages[kind]
	if !ok {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// ErrNoBackend is returned when a Searcher has no Generator.
var ErrNoBackend = errors.New("no generation backend configured")

// Hooks observes a search. Implementations must be safe for concurrent use
// when one Searcher serves several requests.
type Hooks interface {
	Attempt(provider string)
	Retry(provider string, delay time.Duration)
	Done(provider string, kind Kind, results int, elapsed time.Duration)
}

// Report describes one completed search. Delays lists the backoff waits
// that actually elapsed, in order.
type Report struct {
	Request  types.SearchRequest
	Records  []types.ProfessorRecord
	Attempts int
	Delays   []time.Duration
	Elapsed  time.Duration
	Err      *Error
}

// Searcher runs searches against one backend. The zero values of Policy,
// Sleep, Now and Logger select the defaults.
type Searcher struct {
	Backend transport.Generator
	Prompt  types.PromptConfig
	Policy  backoff.Policy
	Logger  *logrus.Logger
	Hooks   Hooks

	// Sleep waits between attempts; tests replace it to record delays.
	Sleep backoff.Sleeper
	// Now stamps record IDs and measures elapsed time.
	Now func() time.Time
}

// Search validates the raw keywords and filters, runs the pipeline, and
// returns the records sorted by descending match score. A nil error with
// an empty slice is a search that completed with no matches.
func (s *Searcher) Search(ctx context.Context, keywords []string, filters types.SearchFilters) ([]types.ProfessorRecord, error) {
	req, err := types.NewSearchRequest(keywords, filters)
	if err != nil {
		rep := Report{Err: newError(KindInvalid, err)}
		s.finish(&rep, s.now())
		return nil, rep.Err
	}

	rep := s.Run(ctx, req)
	if rep.Err != nil {
		return nil, rep.Err
	}
	return rep.Records, nil
}

// Run executes the pipeline for req and reports every attempt.
func (s *Searcher) Run(ctx context.Context, req types.SearchRequest) Report {
	start := s.now()
	rep := Report{Request: req}
	s.run(ctx, &rep)
	s.finish(&rep, start)
	return rep
}

func (s *Searcher) run(ctx context.Context, rep *Report) {
	if err := rep.Request.Validate(); err != nil {
		rep.Err = newError(KindInvalid, err)
		return
	}
	if s.Backend == nil {
		rep.Err = newError(KindConfig, ErrNoBackend)
		return
	}

	prompt, err := query.Build(rep.Request, s.Prompt)
	if err != nil {
		rep.Err = newError(KindConfig, err)
		return
	}

	policy := s.Policy.Normalize()
	sleep := s.Sleep
	if sleep == nil {
		sleep = backoff.Sleep
	}
	log := s.logger().WithFields(logrus.Fields{
		"provider": s.Backend.Name(),
		"keywords": strings.Join(rep.Request.Keywords, ", "),
	})

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			rep.Err = newError(KindCanceled, err)
			return
		}

		rep.Attempts++
		if s.Hooks != nil {
			s.Hooks.Attempt(s.Backend.Name())
		}

		records, err := s.attempt(ctx, prompt)
		if err == nil {
			SortByScore(records)
			rep.Records = records
			log.WithFields(logrus.Fields{"attempts": rep.Attempts, "results": len(records)}).Debug("search completed")
			return
		}

		kind := classify(ctx, err)
		if kind == KindQuota && policy.CanRetry(n) {
			delay := policy.Delay(n)
			log.WithFields(logrus.Fields{"attempt": n + 1, "delay": delay}).WithError(err).Warn("quota exceeded, retrying")
			if s.Hooks != nil {
				s.Hooks.Retry(s.Backend.Name(), delay)
			}
			if err := sleep(ctx, delay); err != nil {
				rep.Err = newError(KindCanceled, err)
				return
			}
			rep.Delays = append(rep.Delays, delay)
			continue
		}

		log.WithFields(logrus.Fields{"attempt": n + 1, "kind": kind}).WithError(err).Error("search failed")
		rep.Err = newError(kind, err)
		return
	}
}

// attempt performs one Transport → Extract → Normalize pass.
func (s *Searcher) attempt(ctx context.Context, prompt string) ([]types.ProfessorRecord, error) {
	text, err := s.Backend.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	data, err := extract.Parse(text)
	if err != nil {
		return nil, err
	}

	n := normalize.Normalizer{Now: s.Now}
	return n.Records(data), nil
}

func (s *Searcher) finish(rep *Report, start time.Time) {
	rep.Elapsed = s.now().Sub(start)
	if s.Hooks == nil {
		return
	}
	var kind Kind
	if rep.Err != nil {
		kind = rep.Err.Kind
	}
	s.Hooks.Done(s.backendName(), kind, len(rep.Records), rep.Elapsed)
}

// classify maps a failed attempt to its Kind. Parse and configuration
// failures are checked before the quota signature so they are never retried.
func classify(ctx context.Context, err error) Kind {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return KindCanceled
	}
	var ce *transport.ConfigurationError
	if errors.As(err, &ce) {
		return KindConfig
	}
	var pe *extract.ParseError
	if errors.As(err, &pe) {
		return KindParse
	}
	if IsQuota(err) {
		return KindQuota
	}
	return KindFetch
}

// IsQuota reports whether err carries the rate-limit signature: status or
// code 429, or a message containing "quota".
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	var te *transport.TransportError
	if errors.As(err, &te) {
		return te.Quota()
	}
	return strings.Contains(err.Error(), "quota")
}

// SortByScore orders records by descending match score, keeping the
// original order of equal scores.
func SortByScore(records []types.ProfessorRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MatchScore > records[j].MatchScore
	})
}

func (s *Searcher) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Searcher) logger() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logrus.StandardLogger()
}

func (s *Searcher) backendName() string {
	if s.Backend == nil {
		return "none"
	}
	return s.Backend.Name()
}

// String renders the kind for logs and metrics labels; success is "ok".
func (k Kind) String() string {
	if k == "" {
		return "ok"
	}
	return string(k)
}

// Describe summarizes a report in one line for logs.
func (r Report) Describe() string {
	if r.Err != nil {
		return fmt.Sprintf("%s after %d attempt(s)", r.Err.Kind, r.Attempts)
	}
	return fmt.Sprintf("%d result(s) after %d attempt(s)", len(r.Records), r.Attempts)
}
