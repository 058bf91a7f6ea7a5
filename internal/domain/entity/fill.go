package entity

import (
	"fmt"
	"strings"
)

type FillStatus string

const (
	FillStatusFilled   FillStatus = "filled"
	FillStatusNotFound FillStatus = "not_found"
	FillStatusError    FillStatus = "error"
)

type FillResult struct {
	Field  string     `json:"field"`
	Status FillStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// FillTally is what the fill executor reports for one request.
type FillTally struct {
	Filled []string     `json:"filled"`
	Errors []FillResult `json:"errors"`
	order  []string
}

func (t *FillTally) AddFilled(field string) {
	t.Filled = append(t.Filled, field)
	t.order = append(t.order, field)
}

func (t *FillTally) AddError(field string, status FillStatus, reason string) {
	t.Errors = append(t.Errors, FillResult{Field: field, Status: status, Reason: reason})
	t.order = append(t.order, field)
}

// Results flattens the tally into one result per processed field, in the
// order the fields were processed.
func (t FillTally) Results() []FillResult {
	filled := make(map[string]bool, len(t.Filled))
	for _, f := range t.Filled {
		filled[f] = true
	}
	failed := make(map[string]FillResult, len(t.Errors))
	for _, e := range t.Errors {
		failed[e.Field] = e
	}

	order := t.order
	if len(order) == 0 {
		order = append(append([]string{}, t.Filled...), fieldsOf(t.Errors)...)
	}

	results := make([]FillResult, 0, len(order))
	for _, field := range order {
		if filled[field] {
			results = append(results, FillResult{Field: field, Status: FillStatusFilled})
			continue
		}
		if r, ok := failed[field]; ok {
			results = append(results, r)
		}
	}
	return results
}

func fieldsOf(results []FillResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Field)
	}
	return out
}

// FillSummary is the human-readable outcome handed back to the orchestrator.
type FillSummary struct {
	Results    []FillResult `json:"results"`
	Unresolved []string     `json:"unresolved,omitempty"`
}

func (s FillSummary) FilledCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == FillStatusFilled {
			n++
		}
	}
	return n
}

func (s FillSummary) FailedCount() int {
	return len(s.Results) - s.FilledCount()
}

func (s FillSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d filled, %d failed", s.FilledCount(), s.FailedCount())
	for _, r := range s.Results {
		if r.Status == FillStatusFilled {
			continue
		}
		fmt.Fprintf(&sb, "\n- %s: %s", r.Field, r.Status)
		if r.Reason != "" {
			fmt.Fprintf(&sb, " (%s)", r.Reason)
		}
	}
	if len(s.Unresolved) > 0 {
		fmt.Fprintf(&sb, "\nask the user for: %s", strings.Join(s.Unresolved, ", "))
	}
	return sb.String()
}
