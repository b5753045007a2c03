package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

func confidantUser() domain.User {
	return domain.User{
		ID:             "inviter-1",
		Identification: "idn-inviter",
		FullName:       "Carla Confidant",
		Confidant:      true,
	}
}

func newTestUserInvitations(t *testing.T, deps UserInvitationsDeps) UserInvitations {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)
		}
	}
	svc, err := NewUserInvitations(deps)
	if err != nil {
		t.Fatalf("new user invitations: %v", err)
	}
	return svc
}

func TestCreateInvitationRequiresConfidant(t *testing.T) {
	plain := domain.User{ID: "user-1", Identification: "idn-1"}

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users:       &stubUserRepository{},
		Invitations: &stubInvitationRepository{},
	})

	_, err := svc.CreateInvitation(context.Background(), NewCreateInvitationSpecification(authenticatedSubject(plain), domain.InvitationValues{
		Email: "friend@example.com",
	}))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for non-confidant, got %v", err)
	}
}

func TestCreateInvitationQuota(t *testing.T) {
	inviter := confidantUser()
	quotas := DefaultQuotas()
	quotas.MaxInvitationsPerUser = 2

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{},
		Invitations: &stubInvitationRepository{
			CountByInviterFn: func(ctx context.Context, inviterID domain.ID) (int, error) {
				return 2, nil
			},
		},
		Quotas: quotas,
	})

	_, err := svc.CreateInvitation(context.Background(), NewCreateInvitationSpecification(authenticatedSubject(inviter), domain.InvitationValues{
		Email: "friend@example.com",
	}))
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestCreateInvitationRetriesCodeCollision(t *testing.T) {
	inviter := confidantUser()
	codes := []string{}

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{},
		Invitations: &stubInvitationRepository{
			InsertFn: func(ctx context.Context, invitation domain.Invitation) error {
				codes = append(codes, invitation.Code)
				if len(codes) == 1 {
					return errStubConflict
				}
				return nil
			},
		},
	})

	result, err := svc.CreateInvitation(context.Background(), NewCreateInvitationSpecification(authenticatedSubject(inviter), domain.InvitationValues{
		Email: "Friend@Example.com",
	}))
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected a retry after code collision, got %d attempts", len(codes))
	}
	if codes[0] == codes[1] {
		t.Fatalf("expected a fresh code on retry")
	}
	if result.Status != domain.InvitationOpen {
		t.Fatalf("expected open invitation, got %s", result.Status)
	}
	if result.Email != "friend@example.com" {
		t.Fatalf("expected normalised email, got %q", result.Email)
	}
}

func TestCreateInvitationValidation(t *testing.T) {
	inviter := confidantUser()

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users:       &stubUserRepository{},
		Invitations: &stubInvitationRepository{},
	})

	_, err := svc.CreateInvitation(context.Background(), NewCreateInvitationSpecification(authenticatedSubject(inviter), domain.InvitationValues{
		Email: "not-an-address",
	}))
	if !errors.Is(err, ErrInvalidValues) {
		t.Fatalf("expected ErrInvalidValues, got %v", err)
	}
}

func TestSendInvitationStampsSentAtOnSuccess(t *testing.T) {
	inviter := confidantUser()
	now := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)
	invitation := domain.Invitation{
		ID:        "inv-1",
		InviterID: inviter.ID,
		Code:      "codeword",
		Status:    domain.InvitationOpen,
		Email:     "friend@example.com",
	}

	emails := &captureEmails{}
	var updated domain.Invitation

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return inviter, nil
			},
		},
		Invitations: &stubInvitationRepository{
			FindByIDFn: func(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
				return invitation, nil
			},
			UpdateFn: func(ctx context.Context, inv domain.Invitation) error {
				updated = inv
				return nil
			},
		},
		Email: emails,
		Clock: func() time.Time { return now },
	})

	result, err := svc.SendInvitation(context.Background(), NewSendInvitationSpecification(authenticatedSubject(inviter), invitation.ID))
	if err != nil {
		t.Fatalf("send invitation: %v", err)
	}
	if len(emails.messages) != 1 {
		t.Fatalf("expected one email, got %d", len(emails.messages))
	}
	if emails.messages[0].Code != "codeword" {
		t.Fatalf("expected invitation code in payload, got %q", emails.messages[0].Code)
	}
	if emails.messages[0].InviterName != inviter.DisplayName() {
		t.Fatalf("expected inviter name, got %q", emails.messages[0].InviterName)
	}
	if updated.SentAt == nil || !updated.SentAt.Equal(now) {
		t.Fatalf("expected sentAt stamp %s, got %v", now, updated.SentAt)
	}
	if result.SentAt == nil {
		t.Fatalf("expected sentAt on result")
	}
}

func TestSendInvitationSwallowsProviderFailure(t *testing.T) {
	inviter := confidantUser()
	invitation := domain.Invitation{
		ID:        "inv-1",
		InviterID: inviter.ID,
		Code:      "codeword",
		Status:    domain.InvitationOpen,
		Email:     "friend@example.com",
	}

	updates := 0

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return inviter, nil
			},
		},
		Invitations: &stubInvitationRepository{
			FindByIDFn: func(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
				return invitation, nil
			},
			UpdateFn: func(ctx context.Context, inv domain.Invitation) error {
				updates++
				return nil
			},
		},
		Email: &captureEmails{err: errors.New("mailer down")},
	})

	result, err := svc.SendInvitation(context.Background(), NewSendInvitationSpecification(authenticatedSubject(inviter), invitation.ID))
	if err != nil {
		t.Fatalf("provider failure must not fail the action: %v", err)
	}
	if result.SentAt != nil {
		t.Fatalf("expected no sentAt stamp on failure, got %v", result.SentAt)
	}
	if updates != 0 {
		t.Fatalf("expected no persistence on failure, got %d updates", updates)
	}
}

func TestSendInvitationInviterOnly(t *testing.T) {
	inviter := confidantUser()
	stranger := domain.User{ID: "user-9", Identification: "idn-9"}
	invitation := domain.Invitation{ID: "inv-1", InviterID: inviter.ID, Status: domain.InvitationOpen}

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return inviter, nil
			},
		},
		Invitations: &stubInvitationRepository{
			FindByIDFn: func(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
				return invitation, nil
			},
		},
	})

	_, err := svc.SendInvitation(context.Background(), NewSendInvitationSpecification(authenticatedSubject(stranger), invitation.ID))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestInvitationStatusMonotonicity(t *testing.T) {
	inviter := confidantUser()
	invitee := domain.User{ID: "invitee-1", Identification: "idn-invitee"}

	for _, status := range []domain.InvitationStatus{
		domain.InvitationAccepted,
		domain.InvitationDeclined,
		domain.InvitationRevoked,
	} {
		invitation := domain.Invitation{ID: "inv-1", InviterID: inviter.ID, Code: "codeword", Status: status}

		svc := newTestUserInvitations(t, UserInvitationsDeps{
			Users: &stubUserRepository{
				FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
					return inviter, nil
				},
			},
			Invitations: &stubInvitationRepository{
				FindByIDFn: func(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
					return invitation, nil
				},
				FindByCodeFn: func(ctx context.Context, code string) (domain.Invitation, error) {
					return invitation, nil
				},
			},
		})

		if _, err := svc.AcceptInvitation(context.Background(), NewAcceptInvitationSpecification(authenticatedSubject(invitee), "codeword")); !errors.Is(err, ErrInvalidInvitationStatus) {
			t.Fatalf("accept from %s: expected ErrInvalidInvitationStatus, got %v", status, err)
		}
		if _, err := svc.RevokeInvitation(context.Background(), NewRevokeInvitationSpecification(authenticatedSubject(inviter), "inv-1")); !errors.Is(err, ErrInvalidInvitationStatus) {
			t.Fatalf("revoke from %s: expected ErrInvalidInvitationStatus, got %v", status, err)
		}
		var typed InvalidInvitationStatusError
		_, err := svc.DeclineInvitation(context.Background(), NewDeclineInvitationSpecification(anonymousSubject("idn-guest"), "codeword"))
		if !errors.As(err, &typed) || typed.Status != status {
			t.Fatalf("decline from %s: expected typed status error, got %v", status, err)
		}
	}
}

func TestAcceptInvitationRecordsInvitee(t *testing.T) {
	inviter := confidantUser()
	invitee := domain.User{ID: "invitee-1", Identification: "idn-invitee"}
	invitation := domain.Invitation{ID: "inv-1", InviterID: inviter.ID, Code: "codeword", Status: domain.InvitationOpen}

	var updated domain.Invitation

	svc := newTestUserInvitations(t, UserInvitationsDeps{
		Users: &stubUserRepository{},
		Invitations: &stubInvitationRepository{
			FindByCodeFn: func(ctx context.Context, code string) (domain.Invitation, error) {
				if code != "codeword" {
					return domain.Invitation{}, errStubNotFound
				}
				return invitation, nil
			},
			UpdateFn: func(ctx context.Context, inv domain.Invitation) error {
				updated = inv
				return nil
			},
		},
	})

	result, err := svc.AcceptInvitation(context.Background(), NewAcceptInvitationSpecification(authenticatedSubject(invitee), "codeword"))
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if updated.Status != domain.InvitationAccepted {
		t.Fatalf("expected accepted status, got %s", updated.Status)
	}
	if updated.InviteeID != invitee.ID {
		t.Fatalf("expected invitee recorded, got %s", updated.InviteeID)
	}
	if result.Status != domain.InvitationAccepted {
		t.Fatalf("expected accepted result, got %s", result.Status)
	}

	if _, err := svc.AcceptInvitation(context.Background(), NewAcceptInvitationSpecification(anonymousSubject("idn-guest"), "codeword")); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired for anonymous accept, got %v", err)
	}
}
