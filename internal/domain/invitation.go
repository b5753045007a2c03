package domain

import (
	"crypto/rand"
	"encoding/base32"
	"net/mail"
	"strings"
	"time"
)

// InvitationStatus describes the lifecycle state of an invitation.
// Transitions are one-directional: open → accepted | declined | revoked,
// all three terminal.
type InvitationStatus string

const (
	// InvitationOpen is the initial state of a created invitation.
	InvitationOpen InvitationStatus = "open"
	// InvitationAccepted marks a consumed invitation.
	InvitationAccepted InvitationStatus = "accepted"
	// InvitationDeclined marks a rejected invitation.
	InvitationDeclined InvitationStatus = "declined"
	// InvitationRevoked marks an invitation withdrawn by the inviter.
	InvitationRevoked InvitationStatus = "revoked"
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewInvitationCode returns a fresh unguessable invitation code
// (160 bits of entropy, base32 encoded).
func NewInvitationCode() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is beyond saving.
		panic(err)
	}
	return strings.ToLower(codeEncoding.EncodeToString(buf))
}

// Invitation is an offer from a confidant user to join the service.
// The code is unique and unguessable; the invitee is recorded on accept.
type Invitation struct {
	ID        ID
	InviterID ID
	InviteeID ID
	Code      string
	Status    InvitationStatus
	Email     string
	SentAt    *time.Time
	CreatedAt time.Time
}

// Open reports whether the invitation can still transition.
func (i *Invitation) Open() bool { return i.Status == InvitationOpen }

// InvitationValues is the draft of invitation fields supplied by the
// presentation layer.
type InvitationValues struct {
	Email string
}

// Validate checks the draft against invitation constraints.
func (v InvitationValues) Validate() error {
	errs := ValidationError{}
	email := strings.TrimSpace(v.Email)
	if email == "" {
		errs["email"] = "must not be empty"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "must be a valid email address"
	}
	return errs.orNil()
}
