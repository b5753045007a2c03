package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
	"golang.org/x/text/language"
)

const (
	auditActionUserCreate        = "user.create"
	auditActionUserLogin         = "user.login"
	auditActionUserProfileUpdate = "user.profile.update"
)

// UserServiceDeps bundles the dependencies required to construct a user service instance.
type UserServiceDeps struct {
	Users        repositories.UserRepository
	Reservations repositories.ReservationRepository
	Audit        AuditLogService
	Clock        func() time.Time
	Log          Logger
}

type userService struct {
	users        repositories.UserRepository
	reservations repositories.ReservationRepository
	audit        AuditLogService
	clock        func() time.Time
	log          Logger
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Reservations == nil {
		return nil, errors.New("user service: reservation repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &userService{
		users:        deps.Users,
		reservations: deps.Reservations,
		audit:        deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *userService) Authenticate(ctx context.Context, spec AuthenticateUserSpecification) (AuthenticateResult, error) {
	if spec.Identity.IsZero() {
		return AuthenticateResult{}, invalidValues("user", domain.ValidationError{"identity": "must not be empty"})
	}

	now := s.clock()

	user, err := s.users.FindByIdentity(ctx, spec.Identity)
	if err == nil {
		user.LastLogin = &now
		user.Email = normalizeEmail(spec.Email, user.Email)
		if name := strings.TrimSpace(spec.FullName); name != "" {
			user.FullName = name
		}
		if name := strings.TrimSpace(spec.FirstName); name != "" {
			user.FirstName = name
		}
		user.UpdatedAt = now
		if err := s.users.Update(ctx, user); err != nil {
			return AuthenticateResult{}, err
		}
		s.recordAudit(ctx, user.ID, auditActionUserLogin, user.ID, nil)
		return AuthenticateResult{User: newUserResult(user)}, nil
	}
	if !isNotFound(err) {
		return AuthenticateResult{}, err
	}

	lang := ""
	if canonical, err := canonicalLanguage(spec.Language); err == nil {
		lang = canonical
	}

	user = domain.User{
		ID:             domain.NewID(),
		Identification: domain.NewIdentification(),
		Email:          normalizeEmail(spec.Email, ""),
		FullName:       strings.TrimSpace(spec.FullName),
		FirstName:      strings.TrimSpace(spec.FirstName),
		Language:       lang,
		Settings: domain.UserSettings{
			NotificationsEnabled: true,
			Channels:             []domain.NotificationChannel{domain.ChannelEmail},
		},
		Identity:   spec.Identity,
		FirstLogin: &now,
		LastLogin:  &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return AuthenticateResult{}, err
	}

	transferred := 0
	if !spec.Identification.IsZero() {
		count, err := s.reservations.Transfer(ctx, spec.Identification, user.Identification)
		if err != nil {
			// The account exists either way; the guest can release and
			// re-reserve manually.
			s.log(ctx, "reservation transfer failed", map[string]any{
				"userId": user.ID.String(),
				"error":  err.Error(),
			})
		} else {
			transferred = count
		}
	}

	s.recordAudit(ctx, user.ID, auditActionUserCreate, user.ID, map[string]string{
		"provider": spec.Identity.Provider,
	})

	return AuthenticateResult{
		User:                    newUserResult(user),
		Created:                 true,
		TransferredReservations: transferred,
	}, nil
}

func (s *userService) Profile(ctx context.Context, spec ProfileSpecification) (UserResult, error) {
	if !spec.Subject.Authenticated() {
		return UserResult{}, ErrAuthenticationRequired
	}
	user, err := s.users.FindByID(ctx, spec.Subject.User.ID)
	if err != nil {
		return UserResult{}, notFoundAs(err, ErrInvalidUser)
	}
	return newUserResult(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, spec UpdateProfileSpecification) (UserResult, error) {
	if !spec.Subject.Authenticated() {
		return UserResult{}, ErrAuthenticationRequired
	}
	user, err := s.users.FindByID(ctx, spec.Subject.User.ID)
	if err != nil {
		return UserResult{}, notFoundAs(err, ErrInvalidUser)
	}

	if err := spec.Values.Validate(); err != nil {
		return UserResult{}, invalidValues("user", err)
	}

	now := s.clock()
	previousNick := user.NickName

	user.FullName = strings.TrimSpace(spec.Values.FullName)
	if spec.Values.Language != nil {
		canonical, err := canonicalLanguage(*spec.Values.Language)
		if err != nil {
			return UserResult{}, invalidValues("user", domain.ValidationError{"language": "must be a valid language tag"})
		}
		user.Language = canonical
	}
	if spec.Values.Settings != nil {
		user.Settings = *spec.Values.Settings
	}

	if spec.Values.NickName != nil {
		nick := strings.TrimSpace(*spec.Values.NickName)
		if nick != previousNick {
			if nick != "" {
				if err := s.users.ClaimNickName(ctx, nick, user.ID); err != nil {
					if isConflict(err) {
						return UserResult{}, ErrUniquenessViolated
					}
					return UserResult{}, err
				}
			}
			user.NickName = nick
		}
	}

	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return UserResult{}, err
	}

	if previousNick != "" && previousNick != user.NickName {
		if err := s.users.ReleaseNickName(ctx, previousNick, user.ID); err != nil {
			s.log(ctx, "nickname release failed", map[string]any{
				"userId": user.ID.String(),
				"error":  err.Error(),
			})
		}
	}

	s.recordAudit(ctx, user.ID, auditActionUserProfileUpdate, user.ID, nil)

	return newUserResult(user), nil
}

func (s *userService) recordAudit(ctx context.Context, actorID domain.ID, action string, userID domain.ID, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	targetRef := fmt.Sprintf("/users/%s", userID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actorID.String(), action, targetRef, metadata))
}

func normalizeEmail(email, fallback string) string {
	if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
		return trimmed
	}
	return fallback
}

func canonicalLanguage(tag string) (string, error) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return "", nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
