package main

import (
	"io"
	"os"

	"lc_accountability/internal/app/presenter"
	"lc_accountability/internal/domain/model"
)

type outputFlags struct {
	format  string
	outFile string
}

// render writes the report to --out-file, or to stdout when unset.
func (f outputFlags) render(stdout io.Writer, window model.Window, stats []model.UserStats, message string) error {
	p, err := presenter.ForFormat(f.format)
	if err != nil {
		return err
	}

	w := stdout
	if f.outFile != "" {
		file, err := os.Create(f.outFile)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return p.Present(w, presenter.Report{Days: window.Days(), Stats: stats, Message: message})
}

func statsOf(results []model.RunResult) []model.UserStats {
	stats := make([]model.UserStats, 0, len(results))
	for _, r := range results {
		if r.Record != nil {
			stats = append(stats, model.StatsFromRecord(r.Record))
		}
	}
	return stats
}
