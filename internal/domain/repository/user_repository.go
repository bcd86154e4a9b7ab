package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"lc_accountability/internal/common"
	"lc_accountability/internal/domain/model"
)

// UserRepository is the user directory: a static list loaded once per run.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ActiveUsers(ctx context.Context) ([]model.User, error)
	FindByLeetCodeID(ctx context.Context, leetcodeID string) (*model.User, error)
}

type fileUserRepository struct {
	path string
}

// NewFileUserRepository reads users from a JSON object keyed by user name.
// The file is read on every call; it is small and a run reads it once.
func NewFileUserRepository(path string) UserRepository {
	return &fileUserRepository{path: path}
}

func (r *fileUserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("fileUserRepository.ListUsers: %w", err)
	}
	return ParseUsers(data)
}

func (r *fileUserRepository) ActiveUsers(ctx context.Context) ([]model.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}

func (r *fileUserRepository) FindByLeetCodeID(ctx context.Context, leetcodeID string) (*model.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].LeetCodeID, leetcodeID) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("leetcode user %q: %w", leetcodeID, common.ErrNotFound)
}

type userRecord struct {
	Name             string   `json:"name"`
	LeetCodeID       string   `json:"leetcode_id"`
	SplitwiseID      *flexInt `json:"splitwise_id"`
	SplitwiseGroupID *flexInt `json:"splitwise_group_id"`
	EmailAddress     *string  `json:"email_address"`
	MinQuestions     flexInt  `json:"min_questions"`
	IsActive         flexBool `json:"is_active"`
}

// ParseUsers decodes the user directory, keeping the file's key order so runs
// are reproducible.
func ParseUsers(data []byte) ([]model.User, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading user directory: %v: %w", err, common.ErrValidation)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("user directory must be a JSON object: %w", common.ErrValidation)
	}

	var users []model.User
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading user directory: %v: %w", err, common.ErrValidation)
		}
		key, _ := keyTok.(string)

		var rec userRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("user %q: %v: %w", key, err, common.ErrValidation)
		}
		if rec.Name == "" {
			rec.Name = key
		}
		if rec.LeetCodeID == "" {
			return nil, fmt.Errorf("user %q: leetcode_id is required: %w", key, common.ErrValidation)
		}
		if rec.MinQuestions < 0 {
			return nil, fmt.Errorf("user %q: min_questions must not be negative: %w", key, common.ErrValidation)
		}

		users = append(users, model.User{
			Name:             rec.Name,
			LeetCodeID:       rec.LeetCodeID,
			SplitwiseID:      rec.SplitwiseID.ptr(),
			SplitwiseGroupID: rec.SplitwiseGroupID.ptr(),
			EmailAddress:     rec.EmailAddress,
			MinQuestions:     int(rec.MinQuestions),
			IsActive:         bool(rec.IsActive),
		})
	}
	return users, nil
}

// flexInt accepts 42 or "42".
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", b)
	}
	*f = flexInt(n)
	return nil
}

func (f *flexInt) ptr() *int64 {
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

// flexBool accepts true/false or 0/1.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("expected boolean, got %s", b)
	}
	return nil
}
