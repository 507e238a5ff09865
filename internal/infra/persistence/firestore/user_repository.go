// Package firestore contains the user directory backed by Cloud Firestore.
package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"bmauth/internal/domain/entity"
	"bmauth/internal/domain/repository"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// userDocument is the stored shape of a user. Password holds the hash in records written
// before passwordHash existed.
type userDocument struct {
	Email        string    `firestore:"email"`
	Name         string    `firestore:"name"`
	PasswordHash string    `firestore:"passwordHash,omitempty"`
	Password     string    `firestore:"password,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
}

// emailClaim reserves an email. Its document ID is derived from the email, so two
// registrations for one email contend on the same document.
type emailClaim struct {
	UserID    string    `firestore:"userId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// createMaxAttempts bounds transaction retries. A retry after losing a commit race re-reads the
// claim and reports the email as taken.
const createMaxAttempts = 5

type userRepository struct {
	client *firestore.Client
	users  string
	emails string
	now    func() time.Time
}

// NewUserRepository creates a Firestore-backed directory using the given collections.
func NewUserRepository(client *firestore.Client, usersCollection, emailsCollection string) repository.UserRepository {
	return &userRepository{
		client: client,
		users:  usersCollection,
		emails: emailsCollection,
		now:    time.Now,
	}
}

// Create claims the email and writes the user document in one transaction.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = repo.now().UTC()
	}

	usersCol := repo.client.Collection(repo.users)
	userRef := usersCol.Doc(user.ID)
	claimRef := repo.client.Collection(repo.emails).Doc(emailKey(user.Email))

	err := repo.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads must happen before the writes.
		exists, err := documentExists(tx, claimRef)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrEmailTaken
		}

		// Records written before claims existed are only reachable through the email field.
		legacy, err := tx.Documents(usersCol.Where("email", "==", user.Email).Limit(1)).GetAll()
		if err != nil {
			return errors.Wrap(err, "failed to query users by email")
		}
		if len(legacy) > 0 {
			return repository.ErrEmailTaken
		}

		exists, err = documentExists(tx, userRef)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrUserIDTaken
		}

		if err := tx.Create(claimRef, emailClaim{UserID: user.ID, CreatedAt: user.CreatedAt}); err != nil {
			return errors.Wrap(err, "failed to stage email claim")
		}

		return errors.Wrap(tx.Create(userRef, toDocument(user)), "failed to stage user document")
	}, firestore.MaxAttempts(createMaxAttempts))

	return classifyCreateError(err)
}

func classifyCreateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrEmailTaken), errors.Is(err, repository.ErrUserIDTaken):
		return err
	case isAlreadyExists(err):
		// A concurrent transaction committed the same claim first.
		return repository.ErrEmailTaken
	default:
		return errors.Wrap(err, "failed to create user")
	}
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	iter := repo.client.Collection(repo.users).Where("email", "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return fromSnapshot(snap)
}

func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	snaps, err := repo.client.Collection(repo.users).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(snaps))
	for _, snap := range snaps {
		user, err := fromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func documentExists(tx *firestore.Transaction, ref *firestore.DocumentRef) (bool, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", ref.Path)
	}

	return snap.Exists(), nil
}

func fromSnapshot(snap *firestore.DocumentSnapshot) (*entity.User, error) {
	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode user %s", snap.Ref.ID)
	}

	return toEntity(snap.Ref.ID, &doc), nil
}

func toDocument(user *entity.User) userDocument {
	return userDocument{
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func toEntity(id string, doc *userDocument) *entity.User {
	hash := doc.PasswordHash
	if hash == "" {
		hash = doc.Password
	}

	return &entity.User{
		ID:           id,
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: hash,
		CreatedAt:    doc.CreatedAt,
	}
}

// emailKey maps an email to a valid document ID; emails may contain '/'.
func emailKey(email string) string {
	sum := sha256.Sum256([]byte(email))

	return hex.EncodeToString(sum[:])
}

func isAlreadyExists(err error) bool {
	return status.Code(errors.Cause(err)) == codes.AlreadyExists || status.Code(err) == codes.AlreadyExists
}
