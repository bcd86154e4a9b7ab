package presenter

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

const (
	FormatText = "text"
	FormatHTML = "html"

	profileURLPrefix = "https://leetcode.com/u/"
)

// Report is everything a presenter needs to render one run.
type Report struct {
	Days    int
	Stats   []model.UserStats
	Message string // optional completion message
}

type Presenter interface {
	Present(w io.Writer, report Report) error
}

// ForFormat returns the presenter for "text" or "html".
func ForFormat(format string) (Presenter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return TextPresenter{}, nil
	case FormatHTML:
		return HTMLPresenter{}, nil
	default:
		return nil, fmt.Errorf("output format %q: %w", format, common.ErrValidation)
	}
}

// ProfileURL links to a user's public LeetCode profile.
func ProfileURL(username string) string {
	return profileURLPrefix + username + "/"
}

type TextPresenter struct{}

func (TextPresenter) Present(w io.Writer, report Report) error {
	rule := strings.Repeat("-", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "\nLeetCode Statistics (Last %d Days)\n", report.Days)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-20s %-15s %-10s %-10s %-10s\n", "Username", "Total Questions", "Easy", "Medium", "Hard")
	b.WriteString(rule + "\n")
	for _, s := range report.Stats {
		fmt.Fprintf(&b, "%-20s %-15d %-10d %-10d %-10d\n", s.Username, s.TotalQuestions, s.EasyCount, s.MediumCount, s.HardCount)
	}
	b.WriteString(rule + "\n")
	if report.Message != "" {
		b.WriteString(report.Message + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"profileURL": ProfileURL,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>LeetCode Accountability Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #333; }
        table { border-collapse: collapse; width: 100%; margin-top: 20px; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #f2f2f2; }
        tr:hover { background-color: #f5f5f5; }
        .message { margin: 20px 0; padding: 15px; background-color: #f8f9fa; border-left: 5px solid #4285f4; }
    </style>
</head>
<body>
<h1>LeetCode Statistics (Last {{.Days}} Days)</h1>
<table>
    <tr>
        <th>Username</th>
        <th>Total Questions</th>
        <th>Easy</th>
        <th>Medium</th>
        <th>Hard</th>
    </tr>
{{- range .Stats}}
    <tr>
        <td><a href="{{profileURL .Username}}" target="_blank">{{.Username}}</a></td>
        <td>{{.TotalQuestions}}</td>
        <td>{{.EasyCount}}</td>
        <td>{{.MediumCount}}</td>
        <td>{{.HardCount}}</td>
    </tr>
{{- end}}
</table>
{{- if .Message}}
<div class="message">{{.Message}}</div>
{{- end}}
</body>
</html>
`))

type HTMLPresenter struct{}

func (HTMLPresenter) Present(w io.Writer, report Report) error {
	if err := htmlReport.Execute(w, report); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
