package filter

import (
	"fmt"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

// LoadMode controls how the filtered set is combined with the existing
// curated table.
type LoadMode string

const (
	// ModeOverwrite replaces the curated table wholesale.
	ModeOverwrite LoadMode = "overwrite"
	// ModeAppend unions with the existing curated table, deduplicated
	// by link with the overwrite-merge field rules.
	ModeAppend LoadMode = "append"
)

// ParseLoadMode maps a configuration value to a LoadMode.
func ParseLoadMode(s string) (LoadMode, error) {
	switch LoadMode(s) {
	case ModeOverwrite, ModeAppend:
		return LoadMode(s), nil
	case "":
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("unknown loading mode: %q", s)
	}
}

// ExcludeRule drops a row when any keyword occurs as a substring within
// the row's value for the column.
type ExcludeRule struct {
	Column   string   `mapstructure:"column"`
	Keywords []string `mapstructure:"keywords"`
}

// RequireContentConfig drops rows with an empty value in any of the
// listed columns.
type RequireContentConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Columns []string `mapstructure:"columns"`
}

// DateFilterConfig drops rows whose date column is older than the
// lookback window. A DaysBack of 0 disables the filter regardless of
// the enabled flag.
type DateFilterConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Column   string `mapstructure:"column"`
	DaysBack int    `mapstructure:"days-back"`
}

// Config is the declarative filter configuration. Unknown keys in the
// source document are ignored by the config loader; missing keys take
// the documented defaults.
type Config struct {
	SourceTable    string               `mapstructure:"source-table"`
	OutputTable    string               `mapstructure:"output-table"`
	RequireContent RequireContentConfig `mapstructure:"require-content"`
	DateFilter     DateFilterConfig     `mapstructure:"date-filter"`
	Exclude        []ExcludeRule        `mapstructure:"exclude"`
	CaseSensitive  bool                 `mapstructure:"case-sensitive"`
	AddAsOf        bool                 `mapstructure:"add-as-of"`
	LoadingMode    string               `mapstructure:"loading-mode"`
}

const defaultDaysBack = 7

func (c Config) withDefaults() Config {
	if c.DateFilter.Column == "" {
		c.DateFilter.Column = schema.ColPublished
	}
	return c
}

// DefaultConfig returns the configuration used when the filter section
// is absent: recency over the last week, content required in summary,
// as_of stamping on, append loading.
func DefaultConfig() Config {
	return Config{
		RequireContent: RequireContentConfig{
			Enabled: true,
			Columns: []string{schema.ColSummary},
		},
		DateFilter: DateFilterConfig{
			Enabled:  true,
			Column:   schema.ColPublished,
			DaysBack: defaultDaysBack,
		},
		AddAsOf:     true,
		LoadingMode: string(ModeAppend),
	}
}
