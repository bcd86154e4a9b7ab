package source

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *LeetCodeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLeetCodeClient(srv.URL, srv.Client(), slogtest.Make(t, nil))
}

func decodeRequest(t *testing.T, r *http.Request) graphQLRequest {
	t.Helper()
	var req graphQLRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestFetchRecent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Equal(t, "zoe_codes", req.Variables["username"])
		assert.EqualValues(t, 20, req.Variables["limit"])
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data":{"recentAcSubmissionList":[
			{"id":"1","title":"Two Sum","titleSlug":"two-sum","timestamp":"1744632000"},
			{"id":"2","title":"Valid Parentheses","titleSlug":"","timestamp":"1744635600"}
		]}}`))
	})

	events, err := client.FetchRecent(t.Context(), "zoe_codes", 20)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "two-sum", events[0].ProblemID)
	assert.Equal(t, "Two Sum", events[0].Title)
	assert.Equal(t, "https://leetcode.com/problems/two-sum", events[0].URL)
	assert.True(t, events[0].Timestamp.Equal(time.Unix(1744632000, 0)))
	assert.Nil(t, events[0].Difficulty)

	assert.Equal(t, "valid-parentheses", events[1].ProblemID, "slug derived from title when missing")
}

func TestFetchRecentErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ``, common.ErrRateLimited},
		{"server error", http.StatusInternalServerError, ``, common.ErrSourceUnavailable},
		{"not json", http.StatusOK, `<html>`, common.ErrSourceDataMalformed},
		{"bad timestamp", http.StatusOK, `{"data":{"recentAcSubmissionList":[{"id":"1","title":"A","titleSlug":"a","timestamp":"soon"}]}}`, common.ErrSourceDataMalformed},
		{"unknown user", http.StatusOK, `{"data":{"recentAcSubmissionList":null}}`, common.ErrNotFound},
		{"graphql user error", http.StatusOK, `{"data":null,"errors":[{"message":"That user does not exist."}]}`, common.ErrNotFound},
		{"graphql error", http.StatusOK, `{"errors":[{"message":"boom"}]}`, common.ErrSourceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := client.FetchRecent(t.Context(), "someone", 20)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFetchRecentTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewLeetCodeClient(url, http.DefaultClient, slogtest.Make(t, nil))
	_, err := client.FetchRecent(t.Context(), "someone", 20)
	require.ErrorIs(t, err, common.ErrSourceUnavailable)
}

func TestFetchDifficulty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		switch req.Variables["titleSlug"] {
		case "two-sum":
			w.Write([]byte(`{"data":{"question":{"difficulty":"Easy"}}}`))
		case "mystery":
			w.Write([]byte(`{"data":{"question":{"difficulty":"Legendary"}}}`))
		default:
			w.Write([]byte(`{"data":{"question":null}}`))
		}
	})

	d, err := client.FetchDifficulty(t.Context(), "two-sum")
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyEasy, d)

	_, err = client.FetchDifficulty(t.Context(), "mystery")
	require.ErrorIs(t, err, common.ErrSourceDataMalformed)

	_, err = client.FetchDifficulty(t.Context(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}
