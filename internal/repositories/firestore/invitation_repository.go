package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const (
	invitationsCollection     = "invitations"
	invitationCodesCollection = "invitationCodes"
)

// invitationCodeDocument claims an invitation code. The document ID is the
// code itself, so creating it conflicts when the code is already in use.
type invitationCodeDocument struct {
	InvitationID string `firestore:"invitationId"`
}

// InvitationRepository persists invitations and owns the code claim set.
type InvitationRepository struct {
	provider    *pfirestore.Provider
	invitations *pfirestore.BaseRepository[invitationDocument]
}

// NewInvitationRepository constructs a Firestore backed invitation repository.
func NewInvitationRepository(provider *pfirestore.Provider) *InvitationRepository {
	return &InvitationRepository{
		provider:    provider,
		invitations: pfirestore.NewBaseRepository[invitationDocument](provider, invitationsCollection, nil, nil),
	}
}

// Insert writes the invitation and its code claim in one transaction, so a
// code collision surfaces as a conflict and leaves no partial state.
func (r *InvitationRepository) Insert(ctx context.Context, invitation domain.Invitation) error {
	code := strings.TrimSpace(invitation.Code)
	if code == "" {
		return pfirestore.NewConflict("invitations.insert", errors.New("invitation code is empty"))
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	invitationRef := client.Collection(invitationsCollection).Doc(invitation.ID.String())
	codeRef := client.Collection(invitationCodesCollection).Doc(code)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(codeRef, invitationCodeDocument{InvitationID: invitation.ID.String()}); err != nil {
			return err
		}
		return tx.Create(invitationRef, encodeInvitation(invitation))
	})
	return pfirestore.WrapError("invitations.insert", err)
}

func (r *InvitationRepository) Update(ctx context.Context, invitation domain.Invitation) error {
	_, err := r.invitations.Set(ctx, invitation.ID.String(), encodeInvitation(invitation))
	return err
}

func (r *InvitationRepository) FindByID(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
	doc, err := r.invitations.Get(ctx, invitationID.String())
	if err != nil {
		return domain.Invitation{}, err
	}
	return decodeInvitation(doc.ID, doc.Data), nil
}

// FindByCode resolves the code claim first, then loads the invitation it
// points at.
func (r *InvitationRepository) FindByCode(ctx context.Context, code string) (domain.Invitation, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return domain.Invitation{}, pfirestore.NewNotFound("invitations.findByCode", errors.New("code is empty"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Invitation{}, err
	}
	snapshot, err := client.Collection(invitationCodesCollection).Doc(trimmed).Get(ctx)
	if err != nil {
		return domain.Invitation{}, pfirestore.WrapError("invitations.findByCode", err)
	}
	var claim invitationCodeDocument
	if err := snapshot.DataTo(&claim); err != nil {
		return domain.Invitation{}, pfirestore.WrapError("invitations.findByCode", err)
	}
	return r.FindByID(ctx, domain.ParseID(claim.InvitationID))
}

func (r *InvitationRepository) ListByInviter(ctx context.Context, inviterID domain.ID) ([]domain.Invitation, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	query := client.Collection(invitationsCollection).
		Where("inviterId", "==", inviterID.String()).
		OrderBy("createdAt", firestore.Desc)
	return collectDocuments(ctx, query, "invitations.listByInviter", decodeInvitationSnapshot)
}

func (r *InvitationRepository) CountByInviter(ctx context.Context, inviterID domain.ID) (int, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}
	query := client.Collection(invitationsCollection).Where("inviterId", "==", inviterID.String())
	count, err := countDocuments(ctx, query, "invitations.countByInviter")
	return int(count), err
}

func decodeInvitationSnapshot(snapshot *firestore.DocumentSnapshot) (domain.Invitation, error) {
	var doc invitationDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Invitation{}, fmt.Errorf("decode invitation %s: %w", snapshot.Ref.ID, err)
	}
	return decodeInvitation(snapshot.Ref.ID, doc), nil
}
