package main

import (
	"fmt"
	"strings"
	"time"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseOptionalTime treats "", "none" and "null" as unset.
func parseOptionalTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "none", "null":
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid datetime %q: %w", value, common.ErrValidation)
}

type windowFlags struct {
	days  int
	start string
	end   string
}

// resolve builds the window from either explicit bounds or a day count back
// from end (now when unset).
func (f windowFlags) resolve(now time.Time) (model.Window, error) {
	start, err := parseOptionalTime(f.start)
	if err != nil {
		return model.Window{}, err
	}
	end, err := parseOptionalTime(f.end)
	if err != nil {
		return model.Window{}, err
	}

	w := model.Window{End: now.UTC()}
	if end != nil {
		w.End = *end
	}
	switch {
	case start != nil:
		w.Start = *start
	case f.days > 0:
		w.Start = w.End.AddDate(0, 0, -f.days)
	default:
		return model.Window{}, fmt.Errorf("--days must be positive: %w", common.ErrValidation)
	}
	if w.Start.After(w.End) {
		return model.Window{}, fmt.Errorf("window start %s is after end %s: %w",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), common.ErrValidation)
	}
	return w, nil
}
