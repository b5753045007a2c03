package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const (
	usersCollection     = "users"
	nicknamesCollection = "nicknames"
)

// nicknameDocument claims a nickname for a user. The document ID is the
// lowercased nickname, so claiming is a Create that conflicts when taken.
type nicknameDocument struct {
	UserID string `firestore:"userId"`
}

// UserRepository persists users in the top-level users collection and owns
// the nickname claim set.
type UserRepository struct {
	provider *pfirestore.Provider
	users    *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore backed user repository.
func NewUserRepository(provider *pfirestore.Provider) *UserRepository {
	return &UserRepository{
		provider: provider,
		users:    pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil),
	}
}

func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	_, err := r.users.Create(ctx, user.ID.String(), encodeUser(user))
	return err
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	_, err := r.users.Set(ctx, user.ID.String(), encodeUser(user))
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, userID domain.ID) (domain.User, error) {
	doc, err := r.users.Get(ctx, userID.String())
	if err != nil {
		return domain.User{}, err
	}
	return decodeUser(doc.ID, doc.Data), nil
}

func (r *UserRepository) FindByIdentity(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error) {
	if identity.IsZero() {
		return domain.User{}, pfirestore.NewNotFound("users.findByIdentity", errors.New("identity is empty"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.User{}, err
	}
	query := client.Collection(usersCollection).Where("identityKey", "==", identityKey(identity))
	return firstDocument(ctx, query, "users.findByIdentity", decodeUserSnapshot)
}

func (r *UserRepository) FindByNickName(ctx context.Context, nickName string) (domain.User, error) {
	claim, err := r.nicknameRef(ctx, nickName)
	if err != nil {
		return domain.User{}, err
	}
	snapshot, err := claim.Get(ctx)
	if err != nil {
		return domain.User{}, pfirestore.WrapError("nicknames.get", err)
	}
	var doc nicknameDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.User{}, pfirestore.WrapError("nicknames.get", err)
	}
	return r.FindByID(ctx, domain.ParseID(doc.UserID))
}

// ClaimNickName reserves the nickname inside a transaction so two users
// cannot claim the same name concurrently. Re-claiming one's own nickname
// is a no-op.
func (r *UserRepository) ClaimNickName(ctx context.Context, nickName string, userID domain.ID) error {
	claim, err := r.nicknameRef(ctx, nickName)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(claim)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if snapshot != nil && snapshot.Exists() {
			var doc nicknameDocument
			if err := snapshot.DataTo(&doc); err != nil {
				return err
			}
			if doc.UserID == userID.String() {
				return nil
			}
			return status.Error(codes.AlreadyExists, "nickname already claimed")
		}
		return tx.Create(claim, nicknameDocument{UserID: userID.String()})
	})
}

// ReleaseNickName drops the claim when it is still held by the given user.
func (r *UserRepository) ReleaseNickName(ctx context.Context, nickName string, userID domain.ID) error {
	claim, err := r.nicknameRef(ctx, nickName)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(claim)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		var doc nicknameDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		if doc.UserID != userID.String() {
			return nil
		}
		return tx.Delete(claim)
	})
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	return countDocuments(ctx, client.Collection(usersCollection).Query, "users.count")
}

func (r *UserRepository) nicknameRef(ctx context.Context, nickName string) (*firestore.DocumentRef, error) {
	normalized := strings.ToLower(strings.TrimSpace(nickName))
	if normalized == "" {
		return nil, pfirestore.NewNotFound("nicknames.ref", errors.New("nickname is empty"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(nicknamesCollection).Doc(normalized), nil
}

func decodeUserSnapshot(snapshot *firestore.DocumentSnapshot) (domain.User, error) {
	var doc userDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.User{}, fmt.Errorf("decode user %s: %w", snapshot.Ref.ID, err)
	}
	return decodeUser(snapshot.Ref.ID, doc), nil
}
