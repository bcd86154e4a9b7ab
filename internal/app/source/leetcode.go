// Package source talks to LeetCode's GraphQL endpoint for accepted
// submissions and problem difficulty.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/gosimple/slug"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

const problemURLPrefix = "https://leetcode.com/problems/"

const recentAcceptedQuery = `
query getRecentAcceptedSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
  }
}`

const questionDetailQuery = `
query getQuestionDetail($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    difficulty
  }
}`

// LeetCodeClient implements the submission source over GraphQL.
type LeetCodeClient struct {
	endpoint string
	http     *http.Client
	logger   slog.Logger
}

func NewLeetCodeClient(endpoint string, httpClient *http.Client, logger slog.Logger) *LeetCodeClient {
	return &LeetCodeClient{
		endpoint: endpoint,
		http:     httpClient,
		logger:   logger.Named("leetcode"),
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type recentSubmission struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Timestamp string `json:"timestamp"`
}

// FetchRecent returns at most limit of the user's most recent accepted
// submissions. Older history is not reachable through this query.
func (c *LeetCodeClient) FetchRecent(ctx context.Context, username string, limit int) ([]model.SubmissionEvent, error) {
	var data struct {
		List *[]recentSubmission `json:"recentAcSubmissionList"`
	}
	err := c.execute(ctx, recentAcceptedQuery, map[string]interface{}{
		"username": username,
		"limit":    limit,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetching submissions for %s: %w", username, err)
	}
	if data.List == nil {
		// LeetCode answers an unknown username with a null list.
		return nil, fmt.Errorf("user %s: %w", username, common.ErrNotFound)
	}

	events := make([]model.SubmissionEvent, 0, len(*data.List))
	for _, sub := range *data.List {
		ev, err := toEvent(sub)
		if err != nil {
			return nil, fmt.Errorf("submission %s for %s: %w", sub.ID, username, err)
		}
		events = append(events, ev)
	}
	c.logger.Debug(ctx, "fetched recent submissions",
		slog.F("username", username),
		slog.F("count", len(events)),
	)
	return events, nil
}

func toEvent(sub recentSubmission) (model.SubmissionEvent, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(sub.Timestamp), 10, 64)
	if err != nil {
		return model.SubmissionEvent{}, fmt.Errorf("bad timestamp %q: %w", sub.Timestamp, common.ErrSourceDataMalformed)
	}
	problemID := sub.TitleSlug
	if problemID == "" {
		problemID = slug.Make(sub.Title)
	}
	if problemID == "" {
		return model.SubmissionEvent{}, fmt.Errorf("no problem identifier: %w", common.ErrSourceDataMalformed)
	}
	return model.SubmissionEvent{
		ProblemID: problemID,
		Title:     sub.Title,
		URL:       problemURLPrefix + problemID,
		Timestamp: time.Unix(secs, 0).UTC(),
	}, nil
}

// FetchDifficulty looks up the tier of one problem by its title slug.
func (c *LeetCodeClient) FetchDifficulty(ctx context.Context, problemID string) (model.ProblemDifficulty, error) {
	var data struct {
		Question *struct {
			Difficulty string `json:"difficulty"`
		} `json:"question"`
	}
	err := c.execute(ctx, questionDetailQuery, map[string]interface{}{"titleSlug": problemID}, &data)
	if err != nil {
		return "", fmt.Errorf("fetching difficulty for %s: %w", problemID, err)
	}
	if data.Question == nil {
		return "", fmt.Errorf("problem %s: %w", problemID, common.ErrNotFound)
	}
	d, ok := model.ParseDifficulty(data.Question.Difficulty)
	if !ok {
		return "", fmt.Errorf("problem %s has difficulty %q: %w", problemID, data.Question.Difficulty, common.ErrSourceDataMalformed)
	}
	return d, nil
}

func (c *LeetCodeClient) execute(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building graphql request: %v: %w", err, common.ErrSourceUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%v: %w", err, common.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("graphql endpoint returned status %d: %w", resp.StatusCode, common.ErrSourceUnavailable)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading graphql response: %v: %w", err, common.ErrSourceUnavailable)
	}
	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("decoding graphql response: %v: %w", err, common.ErrSourceDataMalformed)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		kind := common.ErrSourceUnavailable
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
			if strings.Contains(strings.ToLower(e.Message), "does not exist") {
				kind = common.ErrNotFound
			}
		}
		return fmt.Errorf("graphql errors: %s: %w", strings.Join(msgs, "; "), kind)
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return fmt.Errorf("graphql response has no data: %w", common.ErrSourceDataMalformed)
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decoding graphql data: %v: %w", err, common.ErrSourceDataMalformed)
	}
	return nil
}
