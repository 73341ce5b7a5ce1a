package domain

import (
	"time"

	"github.com/aussiebroadwan/signup/pkg/idx"
)

// InviteStatus is the outcome of inviting a single address.
type InviteStatus string

const (
	InviteSent          InviteStatus = "sent"
	InviteAlreadyExists InviteStatus = "exists"
)

// InviteResult reports what happened to one address.
type InviteResult struct {
	Email  string
	Status InviteStatus
}

// InviteOutcomeCounts summarises a finished bulk invitation.
type InviteOutcomeCounts struct {
	Sent    int // fresh addresses that were mailed an invitation
	Skipped int // addresses that already had an account
}

// BulkInviteJob is everything a background bulk invitation needs. It is
// built from the request at submit time and never refers back to it.
type BulkInviteJob struct {
	ID           idx.ID
	InviterEmail string
	InviterName  string
	Addresses    []string // validated, in submission order
	SubmittedAt  time.Time
}
