package filter

import (
	"fmt"
	"time"

	"github.com/jlrodriguez/jobsift/internal/merge"
	"github.com/jlrodriguez/jobsift/internal/schema"
)

// Compose combines the freshly filtered rows with the existing curated
// table. Overwrite replaces the table wholesale. Append merges by link
// with the same last-write-wins-except-notes rules as the overwrite
// merge strategy, so repeated filter runs never duplicate a posting.
func Compose(existing, filtered []schema.Row, mode LoadMode) ([]schema.Row, error) {
	switch mode {
	case ModeOverwrite:
		return filtered, nil
	case ModeAppend:
		res, err := merge.Run(existing, filtered, merge.Overwrite, time.Time{})
		if err != nil {
			return nil, err
		}
		return res.Rows, nil
	default:
		return nil, fmt.Errorf("unknown loading mode: %q", mode)
	}
}
