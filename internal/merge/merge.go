// Package merge combines an incoming batch of posting rows with the
// existing stage table into the next table state. Each strategy is a
// pure function over its inputs: the caller persists the full result
// afterwards, so a failed run never leaves a half-written table.
package merge

import (
	"fmt"
	"time"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

// Strategy selects how incoming rows are combined with the table.
type Strategy string

const (
	// Overwrite updates matching links in place, preserving non-empty
	// notes from the existing row. The default.
	Overwrite Strategy = "scd1"
	// History never overwrites: changed links get a new open version
	// and the previous version is closed.
	History Strategy = "scd2"
	// Passthrough is the legacy upsert: last write wins on every field,
	// including notes. Kept for old deployments.
	Passthrough Strategy = "merge_upsert"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Overwrite, History, Passthrough:
		return Strategy(s), nil
	case "":
		return Overwrite, nil
	default:
		return "", fmt.Errorf("unknown loading strategy: %q", s)
	}
}

// Rejected is an incoming row the engine refused, with the reason.
// Rejections are reported, not fatal: the rest of the batch proceeds.
type Rejected struct {
	Row    schema.Row
	Reason error
}

// Result is the outcome of one merge run.
type Result struct {
	Rows     []schema.Row
	Inserted int
	Updated  int
	Closed   int
	Rejected []Rejected
}

// Run merges incoming into existing under the given strategy. now is
// used only by the history strategy for version boundaries; callers
// capture it once per run.
func Run(existing, incoming []schema.Row, strategy Strategy, now time.Time) (*Result, error) {
	switch strategy {
	case Overwrite:
		return overwrite(existing, incoming, true), nil
	case Passthrough:
		return overwrite(existing, incoming, false), nil
	case History:
		return history(existing, incoming, now), nil
	default:
		return nil, fmt.Errorf("unknown loading strategy: %q", strategy)
	}
}

// splitBatch rejects rows without a link and collapses duplicate links
// within the batch, keeping the last occurrence (the most recent poll
// observation).
func splitBatch(incoming []schema.Row) (map[string]schema.Row, []string, []Rejected) {
	byLink := make(map[string]schema.Row, len(incoming))
	order := make([]string, 0, len(incoming))
	var rejected []Rejected

	for _, row := range incoming {
		if row.Link == "" {
			rejected = append(rejected, Rejected{Row: row, Reason: schema.ErrMissingIdentityKey})
			continue
		}
		if _, seen := byLink[row.Link]; !seen {
			order = append(order, row.Link)
		}
		byLink[row.Link] = row
	}

	return byLink, order, rejected
}

func overwrite(existing, incoming []schema.Row, preserveNotes bool) *Result {
	byLink, order, rejected := splitBatch(incoming)
	res := &Result{Rejected: rejected}

	// Existing order is preserved: updated links keep their position,
	// carried-forward links stay untouched. Duplicate existing links
	// (legacy data) collapse to the first occurrence.
	seen := make(map[string]bool, len(existing))
	consumed := make(map[string]bool, len(byLink))
	for _, row := range existing {
		if row.Link != "" && seen[row.Link] {
			continue
		}
		seen[row.Link] = true

		next, ok := byLink[row.Link]
		if !ok {
			res.Rows = append(res.Rows, row)
			continue
		}
		consumed[row.Link] = true
		res.Updated++
		if preserveNotes {
			next = schema.MergeFields(row, next)
		}
		res.Rows = append(res.Rows, next)
	}

	// Brand-new links append at the end, in first-seen batch order.
	for _, link := range order {
		if consumed[link] {
			continue
		}
		res.Rows = append(res.Rows, byLink[link])
		res.Inserted++
	}

	return res
}

func history(existing, incoming []schema.Row, now time.Time) *Result {
	byLink, order, rejected := splitBatch(incoming)
	res := &Result{Rejected: rejected}

	open := make(map[string]int) // link -> index of open version in res.Rows
	for _, row := range existing {
		res.Rows = append(res.Rows, row)
		if row.Current() {
			open[row.Link] = len(res.Rows) - 1
		}
	}

	for _, link := range order {
		next := byLink[link]
		idx, hasOpen := open[link]
		if hasOpen {
			if res.Rows[idx].ContentEquals(next) {
				// Unchanged observation: no new version.
				delete(open, link)
				continue
			}
			res.Rows[idx].EffectiveTo = now
			res.Updated++
			delete(open, link)
		} else {
			res.Inserted++
		}

		next.Notes = ""
		next.EffectiveFrom = now
		next.EffectiveTo = time.Time{}
		res.Rows = append(res.Rows, next)
	}

	// Open versions not re-observed in this batch are closed; their
	// history stays in the table.
	for _, idx := range open {
		res.Rows[idx].EffectiveTo = now
		res.Closed++
	}

	return res
}
