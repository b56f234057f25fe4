package owner

import (
	"time"

	"heirloom/pkg/domain"
)

// Owner is the account holder whose assets are subject to inheritance.
//
// ContinuityTriggered is one-way: it transitions false→true exactly once and
// never resets. The record is never deleted while nominees reference it.
type Owner struct {
	ID                  domain.OwnerID
	Email               string
	FullName            string
	PasswordHash        string
	ContinuityTriggered bool
	TriggeredAt         *time.Time
	CreatedAt           time.Time
}
