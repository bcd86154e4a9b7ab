package model

// User is one member of the accountability group, loaded from the user
// directory at the start of a run.
type User struct {
	Name             string  `json:"name"`
	LeetCodeID       string  `json:"leetcode_id"`
	SplitwiseID      *int64  `json:"splitwise_id,omitempty"`       // billing identity; nil means exempt
	SplitwiseGroupID *int64  `json:"splitwise_group_id,omitempty"` // billing group
	EmailAddress     *string `json:"email_address,omitempty"`
	MinQuestions     int     `json:"min_questions"`
	IsActive         bool    `json:"is_active"`
}

func (u User) HasBillingIdentity() bool {
	return u.SplitwiseID != nil
}
