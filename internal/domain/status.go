package domain

import "fmt"

// Status is the review lifecycle state of a user.
type Status string

const (
	// StatusFound marks a discovered user awaiting moderator review.
	StatusFound Status = "Found"
	// StatusApproved marks a user accepted into the community.
	StatusApproved Status = "Approved"
	// StatusDenied marks a user rejected by a moderator.
	StatusDenied Status = "Denied"
)

// ParseDecision parses a review decision. Only Approved and Denied are valid
// decisions; a user can never be moved back to Found by a reviewer.
func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusDenied:
		return Status(s), nil
	default:
		return "", fmt.Errorf("decision must be Approved or Denied: %w", ErrBadRequest)
	}
}
