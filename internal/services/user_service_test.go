package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

func newTestUserService(t *testing.T, deps UserServiceDeps) UserService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
		}
	}
	svc, err := NewUserService(deps)
	if err != nil {
		t.Fatalf("new user service: %v", err)
	}
	return svc
}

func TestAuthenticateFirstLoginCreatesUserAndTransfersReservations(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	identity := domain.ExternalIdentity{Provider: "google", Subject: "sub-123"}

	var inserted domain.User
	var transferFrom, transferTo domain.Identification

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{
			InsertFn: func(ctx context.Context, user domain.User) error {
				inserted = user
				return nil
			},
		},
		Reservations: &stubReservationRepository{
			TransferFn: func(ctx context.Context, from, to domain.Identification) (int, error) {
				transferFrom, transferTo = from, to
				return 2, nil
			},
		},
		Clock: func() time.Time { return now },
	})

	result, err := svc.Authenticate(context.Background(), NewAuthenticateUserSpecification(identity, "New@Example.COM", "Nora New", "Nora", "de_DE", "idn-guest"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !result.Created {
		t.Fatalf("expected created account")
	}
	if result.TransferredReservations != 2 {
		t.Fatalf("expected 2 transferred reservations, got %d", result.TransferredReservations)
	}
	if inserted.Email != "new@example.com" {
		t.Fatalf("expected normalised email, got %q", inserted.Email)
	}
	if inserted.Language != "de-DE" {
		t.Fatalf("expected canonical language tag, got %q", inserted.Language)
	}
	if inserted.FirstLogin == nil || !inserted.FirstLogin.Equal(now) {
		t.Fatalf("expected first login stamp %s, got %v", now, inserted.FirstLogin)
	}
	if inserted.Identification.IsZero() {
		t.Fatalf("expected a fresh identification for the new user")
	}
	if transferFrom != "idn-guest" {
		t.Fatalf("expected transfer from guest identification, got %s", transferFrom)
	}
	if transferTo != inserted.Identification {
		t.Fatalf("expected transfer to the user identification, got %s", transferTo)
	}
}

func TestAuthenticateExistingUserDoesNotTransfer(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	first := now.AddDate(-1, 0, 0)
	identity := domain.ExternalIdentity{Provider: "google", Subject: "sub-123"}
	existing := domain.User{
		ID:             "user-1",
		Identification: "idn-user",
		Email:          "old@example.com",
		FullName:       "Old Name",
		Identity:       identity,
		FirstLogin:     &first,
	}

	var updated domain.User
	transfers := 0

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{
			FindByIdentityFn: func(ctx context.Context, got domain.ExternalIdentity) (domain.User, error) {
				if got != identity {
					return domain.User{}, errStubNotFound
				}
				return existing, nil
			},
			UpdateFn: func(ctx context.Context, user domain.User) error {
				updated = user
				return nil
			},
		},
		Reservations: &stubReservationRepository{
			TransferFn: func(ctx context.Context, from, to domain.Identification) (int, error) {
				transfers++
				return 0, nil
			},
		},
		Clock: func() time.Time { return now },
	})

	result, err := svc.Authenticate(context.Background(), NewAuthenticateUserSpecification(identity, "new@example.com", "New Name", "", "", "idn-guest"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.Created {
		t.Fatalf("expected existing account")
	}
	if transfers != 0 {
		t.Fatalf("guest reservations must not transfer into a pre-existing account")
	}
	if updated.LastLogin == nil || !updated.LastLogin.Equal(now) {
		t.Fatalf("expected last login stamp %s, got %v", now, updated.LastLogin)
	}
	if updated.FullName != "New Name" {
		t.Fatalf("expected refreshed name, got %q", updated.FullName)
	}
	if updated.Identification != "idn-user" {
		t.Fatalf("identification must stay stable, got %s", updated.Identification)
	}
}

func TestAuthenticateTransferFailureDoesNotFailLogin(t *testing.T) {
	identity := domain.ExternalIdentity{Provider: "google", Subject: "sub-9"}

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{},
		Reservations: &stubReservationRepository{
			TransferFn: func(ctx context.Context, from, to domain.Identification) (int, error) {
				return 0, errors.New("firestore unavailable")
			},
		},
	})

	result, err := svc.Authenticate(context.Background(), NewAuthenticateUserSpecification(identity, "a@example.com", "A", "", "", "idn-guest"))
	if err != nil {
		t.Fatalf("authenticate with failing transfer: %v", err)
	}
	if result.TransferredReservations != 0 {
		t.Fatalf("expected zero transfers, got %d", result.TransferredReservations)
	}
}

func TestUpdateProfileClaimsAndReleasesNickName(t *testing.T) {
	user := domain.User{ID: "user-1", Identification: "idn-user", FullName: "Olga Owner", NickName: "olga"}

	claims := []string{}
	releases := []string{}

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return user, nil
			},
			ClaimNickNameFn: func(ctx context.Context, nickName string, userID domain.ID) error {
				claims = append(claims, nickName)
				return nil
			},
			ReleaseFn: func(ctx context.Context, nickName string, userID domain.ID) error {
				releases = append(releases, nickName)
				return nil
			},
		},
		Reservations: &stubReservationRepository{},
	})

	nick := "olga-new"
	result, err := svc.UpdateProfile(context.Background(), NewUpdateProfileSpecification(authenticatedSubject(user), domain.UserValues{
		FullName: "Olga Owner",
		NickName: &nick,
	}))
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if result.NickName != "olga-new" {
		t.Fatalf("expected new nickname, got %q", result.NickName)
	}
	if len(claims) != 1 || claims[0] != "olga-new" {
		t.Fatalf("expected claim of olga-new, got %v", claims)
	}
	if len(releases) != 1 || releases[0] != "olga" {
		t.Fatalf("expected release of olga, got %v", releases)
	}
}

func TestUpdateProfileNickNameConflict(t *testing.T) {
	user := domain.User{ID: "user-1", Identification: "idn-user", FullName: "Olga Owner"}

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return user, nil
			},
			ClaimNickNameFn: func(ctx context.Context, nickName string, userID domain.ID) error {
				return errStubConflict
			},
		},
		Reservations: &stubReservationRepository{},
	})

	nick := "taken"
	_, err := svc.UpdateProfile(context.Background(), NewUpdateProfileSpecification(authenticatedSubject(user), domain.UserValues{
		FullName: "Olga Owner",
		NickName: &nick,
	}))
	if !errors.Is(err, ErrUniquenessViolated) {
		t.Fatalf("expected ErrUniquenessViolated, got %v", err)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	user := domain.User{ID: "user-1", Identification: "idn-user"}

	svc := newTestUserService(t, UserServiceDeps{
		Users: &stubUserRepository{
			FindByIDFn: func(ctx context.Context, userID domain.ID) (domain.User, error) {
				return user, nil
			},
		},
		Reservations: &stubReservationRepository{},
	})

	_, err := svc.UpdateProfile(context.Background(), NewUpdateProfileSpecification(authenticatedSubject(user), domain.UserValues{
		FullName: "   ",
	}))
	if !errors.Is(err, ErrInvalidValues) {
		t.Fatalf("expected ErrInvalidValues, got %v", err)
	}
	var invalid InvalidValuesError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidValuesError, got %T", err)
	}
	if !invalid.Validation.Has("fullName") {
		t.Fatalf("expected fullName violation, got %v", invalid.Validation)
	}
}

func TestProfileRequiresAuthentication(t *testing.T) {
	svc := newTestUserService(t, UserServiceDeps{
		Users:        &stubUserRepository{},
		Reservations: &stubReservationRepository{},
	})

	if _, err := svc.Profile(context.Background(), NewProfileSpecification(anonymousSubject("idn-guest"))); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}
