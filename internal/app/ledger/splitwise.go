// Package ledger posts penalty expenses to Splitwise.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cdr.dev/slog"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
	"lc_accountability/internal/platform/transport"
)

type SplitwiseClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  slog.Logger
}

func NewSplitwiseClient(baseURL, apiKey string, httpClient *http.Client, logger slog.Logger) *SplitwiseClient {
	return &SplitwiseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger.Named("splitwise"),
	}
}

// NewHTTPClient returns the client expense posts must go through. It never
// retries: a POST that failed after Splitwise stored the expense must not be
// sent a second time.
func NewHTTPClient(logger slog.Logger, timeout time.Duration, userAgent string) *http.Client {
	return transport.NewClient(logger, transport.Options{
		Timeout:    timeout,
		MaxRetries: 0,
		UserAgent:  userAgent,
	})
}

type createExpenseResponse struct {
	Expenses []struct {
		ID int64 `json:"id"`
	} `json:"expenses"`
	Errors json.RawMessage `json:"errors"`
}

// expenseBody flattens an expense into Splitwise's users__N__field form.
func expenseBody(e model.Expense) map[string]interface{} {
	body := map[string]interface{}{
		"cost":            e.Cost.StringFixed(2),
		"description":     e.Description,
		"details":         e.Details,
		"date":            e.Date.UTC().Format("2006-01-02T15:04:05Z"),
		"repeat_interval": e.RepeatInterval,
		"currency_code":   e.CurrencyCode,
		"category_id":     e.CategoryID,
		"group_id":        e.GroupID,
	}
	for i, share := range e.Users {
		prefix := "users__" + strconv.Itoa(i) + "__"
		body[prefix+"user_id"] = share.BillingID
		body[prefix+"paid_share"] = share.PaidShare.StringFixed(2)
		body[prefix+"owed_share"] = share.OwedShare.StringFixed(2)
	}
	return body
}

// CreateExpense posts the expense and returns the id Splitwise assigned.
func (c *SplitwiseClient) CreateExpense(ctx context.Context, e model.Expense) (string, error) {
	if len(e.Users) == 0 {
		return "", fmt.Errorf("expense has no participants: %w", common.ErrValidation)
	}
	payload, err := json.Marshal(expenseBody(e))
	if err != nil {
		return "", fmt.Errorf("encoding expense: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create_expense", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building expense request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info(ctx, "creating expense",
		slog.F("group_id", e.GroupID),
		slog.F("cost", e.Cost.StringFixed(2)),
		slog.F("description", e.Description),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting expense: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading expense response: %v: %w", err, common.ErrServiceUnavailable)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("splitwise returned status %d: %w", resp.StatusCode, common.ErrUnauthorized)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("splitwise returned status %d: %w", resp.StatusCode, common.ErrServiceUnavailable)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("splitwise returned status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(raw), common.ErrLedgerRejected)
	}

	var out createExpenseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding expense response: %v: %w", err, common.ErrLedgerRejected)
	}
	if hasErrors(out.Errors) {
		return "", fmt.Errorf("splitwise errors: %s: %w", out.Errors, common.ErrLedgerRejected)
	}
	if len(out.Expenses) == 0 {
		return "", fmt.Errorf("splitwise created no expense: %w", common.ErrLedgerRejected)
	}
	id := strconv.FormatInt(out.Expenses[0].ID, 10)
	c.logger.Info(ctx, "expense created", slog.F("expense_id", id))
	return id, nil
}

// hasErrors reports whether Splitwise's errors field is non-empty. It comes
// back as {}, [] or an object of field -> messages.
func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "{}" && s != "[]" && s != "null"
}
