package handlers

import (
	"context"
	"errors"
	"strings"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/repositories"
	"github.com/edmw/wishlist-sub001/internal/services"
)

const identityProviderFirebase = "firebase"

// SubjectResolver builds the acting subject for a request: the registered
// user when the request carries a verified identity with an account, the
// bare visitor identification otherwise.
type SubjectResolver struct {
	users repositories.UserRepository
}

// NewSubjectResolver constructs a resolver backed by the user repository.
func NewSubjectResolver(users repositories.UserRepository) *SubjectResolver {
	return &SubjectResolver{users: users}
}

// Resolve derives the subject from the request context. A verified identity
// without an account resolves to an anonymous subject; the account is only
// created through the login endpoint.
func (s *SubjectResolver) Resolve(ctx context.Context) (services.Subject, error) {
	subject := services.Subject{}
	if identification, ok := auth.IdentificationFromContext(ctx); ok {
		subject.Identification = identification
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		return subject, nil
	}
	if s == nil || s.users == nil {
		return subject, nil
	}

	user, err := s.users.FindByIdentity(ctx, externalIdentity(identity))
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return subject, nil
		}
		return services.Subject{}, err
	}

	subject.User = &user
	return subject, nil
}

func externalIdentity(identity *auth.Identity) domain.ExternalIdentity {
	return domain.ExternalIdentity{
		Provider: identityProviderFirebase,
		Subject:  strings.TrimSpace(identity.UID),
	}
}
