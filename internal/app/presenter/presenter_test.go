package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

var sampleReport = Report{
	Days: 7,
	Stats: []model.UserStats{
		{Username: "zoe", TotalQuestions: 4, EasyCount: 2, MediumCount: 1, HardCount: 1},
		{Username: "mia", TotalQuestions: 0},
	},
	Message: "1 charged, 1 goal met",
}

func TestForFormat(t *testing.T) {
	t.Parallel()

	p, err := ForFormat("")
	require.NoError(t, err)
	assert.IsType(t, TextPresenter{}, p)

	p, err = ForFormat("HTML")
	require.NoError(t, err)
	assert.IsType(t, HTMLPresenter{}, p)

	_, err = ForFormat("pdf")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestTextPresenter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, TextPresenter{}.Present(&buf, sampleReport))
	out := buf.String()

	assert.Contains(t, out, "LeetCode Statistics (Last 7 Days)")
	lines := strings.Split(out, "\n")
	var row string
	for _, l := range lines {
		if strings.HasPrefix(l, "zoe") {
			row = l
		}
	}
	require.NotEmpty(t, row)
	assert.Equal(t, []string{"zoe", "4", "2", "1", "1"}, strings.Fields(row))
	assert.True(t, strings.HasSuffix(out, "1 charged, 1 goal met\n"))
}

func TestHTMLPresenter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, HTMLPresenter{}.Present(&buf, sampleReport))
	out := buf.String()

	assert.Contains(t, out, `<a href="https://leetcode.com/u/zoe/" target="_blank">zoe</a>`)
	assert.Contains(t, out, "<h1>LeetCode Statistics (Last 7 Days)</h1>")
	assert.Contains(t, out, `<div class="message">1 charged, 1 goal met</div>`)
}

func TestHTMLPresenterEscapes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := Report{Days: 1, Stats: []model.UserStats{{Username: "<b>x</b>"}}}
	require.NoError(t, HTMLPresenter{}.Present(&buf, report))
	assert.NotContains(t, buf.String(), "<b>x</b>")
	assert.NotContains(t, buf.String(), `class="message"`)
}
