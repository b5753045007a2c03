package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

const (
	auditActionInvitationCreate  = "invitation.create"
	auditActionInvitationSend    = "invitation.send"
	auditActionInvitationAccept  = "invitation.accept"
	auditActionInvitationDecline = "invitation.decline"
	auditActionInvitationRevoke  = "invitation.revoke"

	// codeAttempts bounds retries when a freshly minted invitation code
	// collides with an existing one.
	codeAttempts = 3
)

// UserInvitationsDeps bundles the dependencies required to construct a user invitations service instance.
type UserInvitationsDeps struct {
	Users       repositories.UserRepository
	Invitations repositories.InvitationRepository
	Email       EmailProvider
	Audit       AuditLogService
	Quotas      Quotas
	Clock       func() time.Time
	Log         Logger
}

type userInvitations struct {
	users       repositories.UserRepository
	invitations repositories.InvitationRepository
	email       EmailProvider
	audit       AuditLogService
	quotas      Quotas
	clock       func() time.Time
	log         Logger
}

// NewUserInvitations wires dependencies into a concrete UserInvitations implementation.
func NewUserInvitations(deps UserInvitationsDeps) (UserInvitations, error) {
	if deps.Users == nil {
		return nil, errors.New("user invitations: user repository is required")
	}
	if deps.Invitations == nil {
		return nil, errors.New("user invitations: invitation repository is required")
	}

	quotas := deps.Quotas
	if quotas.MaxInvitationsPerUser <= 0 {
		quotas = DefaultQuotas()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &userInvitations{
		users:       deps.Users,
		invitations: deps.Invitations,
		email:       deps.Email,
		audit:       deps.Audit,
		quotas:      quotas,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *userInvitations) CreateInvitation(ctx context.Context, spec CreateInvitationSpecification) (InvitationResult, error) {
	if !spec.Subject.Authenticated() {
		return InvitationResult{}, ErrAuthenticationRequired
	}
	inviter := *spec.Subject.User
	if !inviter.Confidant {
		return InvitationResult{}, ErrAccessDenied
	}

	if err := spec.Values.Validate(); err != nil {
		return InvitationResult{}, invalidValues("invitation", err)
	}

	count, err := s.invitations.CountByInviter(ctx, inviter.ID)
	if err != nil {
		return InvitationResult{}, err
	}
	if count >= s.quotas.MaxInvitationsPerUser {
		return InvitationResult{}, LimitReachedError{Maximum: s.quotas.MaxInvitationsPerUser}
	}

	invitation := domain.Invitation{
		InviterID: inviter.ID,
		Status:    domain.InvitationOpen,
		Email:     strings.ToLower(strings.TrimSpace(spec.Values.Email)),
		CreatedAt: s.clock(),
	}
	inserted := false
	for range codeAttempts {
		invitation.ID = domain.NewID()
		invitation.Code = domain.NewInvitationCode()
		err := s.invitations.Insert(ctx, invitation)
		if err == nil {
			inserted = true
			break
		}
		if !isConflict(err) {
			return InvitationResult{}, err
		}
	}
	if !inserted {
		return InvitationResult{}, ErrUniquenessViolated
	}

	s.recordAudit(ctx, inviter.ID, auditActionInvitationCreate, invitation)

	return newInvitationResult(invitation), nil
}

func (s *userInvitations) SendInvitation(ctx context.Context, spec SendInvitationSpecification) (InvitationResult, error) {
	auth, err := s.resolveOwned(ctx, spec.Subject, spec.InvitationID)
	if err != nil {
		return InvitationResult{}, err
	}
	invitation := auth.Entity
	if !invitation.Open() {
		return InvitationResult{}, InvalidInvitationStatusError{Status: invitation.Status}
	}

	if s.email == nil {
		return newInvitationResult(invitation), nil
	}

	message := InvitationEmailMessage{
		InvitationID: invitation.ID.String(),
		Email:        invitation.Email,
		Code:         invitation.Code,
		InviterName:  auth.Owner.DisplayName(),
		QueuedAt:     s.clock(),
	}
	if _, err := s.email.PublishInvitationEmail(ctx, message); err != nil {
		// The invitation stays open and unstamped; resending is always
		// possible.
		s.log(ctx, "invitation email publish failed", map[string]any{
			"invitationId": invitation.ID.String(),
			"error":        err.Error(),
		})
		return newInvitationResult(invitation), nil
	}

	now := s.clock()
	invitation.SentAt = &now
	if err := s.invitations.Update(ctx, invitation); err != nil {
		return InvitationResult{}, err
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionInvitationSend, invitation)

	return newInvitationResult(invitation), nil
}

func (s *userInvitations) RevokeInvitation(ctx context.Context, spec RevokeInvitationSpecification) (InvitationResult, error) {
	auth, err := s.resolveOwned(ctx, spec.Subject, spec.InvitationID)
	if err != nil {
		return InvitationResult{}, err
	}
	invitation := auth.Entity
	if !invitation.Open() {
		return InvitationResult{}, InvalidInvitationStatusError{Status: invitation.Status}
	}

	invitation.Status = domain.InvitationRevoked
	if err := s.invitations.Update(ctx, invitation); err != nil {
		return InvitationResult{}, err
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionInvitationRevoke, invitation)

	return newInvitationResult(invitation), nil
}

func (s *userInvitations) GetInvitations(ctx context.Context, spec GetInvitationsSpecification) ([]InvitationResult, error) {
	if !spec.Subject.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	inviter := *spec.Subject.User

	invitations, err := s.invitations.ListByInviter(ctx, inviter.ID)
	if err != nil {
		return nil, err
	}
	results := make([]InvitationResult, 0, len(invitations))
	for _, invitation := range invitations {
		results = append(results, newInvitationResult(invitation))
	}
	return results, nil
}

func (s *userInvitations) AcceptInvitation(ctx context.Context, spec AcceptInvitationSpecification) (InvitationResult, error) {
	if !spec.Subject.Authenticated() {
		return InvitationResult{}, ErrAuthenticationRequired
	}
	invitee := *spec.Subject.User

	invitation, err := s.invitations.FindByCode(ctx, strings.TrimSpace(spec.Code))
	if err != nil {
		return InvitationResult{}, notFoundAs(err, ErrInvalidInvitation)
	}
	if !invitation.Open() {
		return InvitationResult{}, InvalidInvitationStatusError{Status: invitation.Status}
	}

	invitation.Status = domain.InvitationAccepted
	invitation.InviteeID = invitee.ID
	if err := s.invitations.Update(ctx, invitation); err != nil {
		return InvitationResult{}, err
	}

	s.recordAudit(ctx, invitee.ID, auditActionInvitationAccept, invitation)

	return newInvitationResult(invitation), nil
}

func (s *userInvitations) DeclineInvitation(ctx context.Context, spec DeclineInvitationSpecification) (InvitationResult, error) {
	invitation, err := s.invitations.FindByCode(ctx, strings.TrimSpace(spec.Code))
	if err != nil {
		return InvitationResult{}, notFoundAs(err, ErrInvalidInvitation)
	}
	if !invitation.Open() {
		return InvitationResult{}, InvalidInvitationStatusError{Status: invitation.Status}
	}

	invitation.Status = domain.InvitationDeclined
	if err := s.invitations.Update(ctx, invitation); err != nil {
		return InvitationResult{}, err
	}

	actor := invitation.Email
	if spec.Subject.Authenticated() {
		actor = spec.Subject.User.ID.String()
	}
	if s.audit != nil {
		targetRef := fmt.Sprintf("/invitations/%s", invitation.ID)
		s.audit.Record(ctx, NewRecordAuditSpecification(actor, auditActionInvitationDecline, targetRef, nil))
	}

	return newInvitationResult(invitation), nil
}

// resolveOwned loads the invitation and proves the subject is its inviter.
func (s *userInvitations) resolveOwned(ctx context.Context, subject Subject, invitationID domain.ID) (Authorization[domain.Invitation], error) {
	if !subject.Authenticated() {
		return Authorization[domain.Invitation]{}, ErrAuthenticationRequired
	}
	invitation, err := s.invitations.FindByID(ctx, invitationID)
	if err != nil {
		return Authorization[domain.Invitation]{}, notFoundAs(err, ErrInvalidInvitation)
	}
	inviter, err := s.users.FindByID(ctx, invitation.InviterID)
	if err != nil {
		return Authorization[domain.Invitation]{}, notFoundAs(err, ErrInvalidUser)
	}
	return AuthorizeInvitation(invitation, inviter, subject)
}

func (s *userInvitations) recordAudit(ctx context.Context, actorID domain.ID, action string, invitation domain.Invitation) {
	if s.audit == nil {
		return
	}
	targetRef := fmt.Sprintf("/invitations/%s", invitation.ID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actorID.String(), action, targetRef, map[string]string{
		"status": string(invitation.Status),
	}))
}
