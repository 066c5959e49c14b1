package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/errandly/identity-service/internal/core/domain"
)

const (
	collectionAccounts = "accounts"
	collectionOtps     = "otps"
)

// CredentialStore implements ports.CredentialStore on two collections:
// accounts and one-per-owner otps.
type CredentialStore struct {
	accounts *mongo.Collection
	otps     *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *CredentialStore {
	return &CredentialStore{
		accounts: db.Collection(collectionAccounts),
		otps:     db.Collection(collectionOtps),
	}
}

type accountDoc struct {
	ID           string    `bson:"_id"`
	FullName     string    `bson:"full_name"`
	Email        string    `bson:"email"`
	PhoneNumber  string    `bson:"phone_number"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type otpDoc struct {
	OwnerID   string    `bson:"owner_id"`
	Code      string    `bson:"code"`
	Verified  bool      `bson:"verified"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		FullName:     d.FullName,
		Email:        d.Email,
		PhoneNumber:  d.PhoneNumber,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *CredentialStore) FindAccountByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone_number": phone})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return r.findAccount(ctx, bson.M{"$or": or})
}

func (r *CredentialStore) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findAccount(ctx, bson.M{"_id": id})
}

func (r *CredentialStore) findAccount(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// CreateAccount relies on the unique email and phone_number indexes to
// reject concurrent duplicates.
func (r *CredentialStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	doc := accountDoc{
		ID:           account.ID,
		FullName:     account.FullName,
		Email:        account.Email,
		PhoneNumber:  account.PhoneNumber,
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
	if _, err := r.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *CredentialStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertOtpForOwner is a single atomic write; the unique owner_id index
// keeps one record per account even under concurrent resends. Two upserts
// racing on a missing record can both try the insert; the loser gets a
// duplicate key and is retried once, which then takes the update path.
func (r *CredentialStore) UpsertOtpForOwner(ctx context.Context, ownerID, code string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"code":       code,
			"verified":   false,
			"expires_at": expiresAt.UTC(),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"owner_id":   ownerID,
			"created_at": now,
		},
	}
	filter := bson.M{"owner_id": ownerID}
	opts := options.Update().SetUpsert(true)

	_, err := r.otps.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.otps.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("upsert otp: %w", err)
	}
	return nil
}

func (r *CredentialStore) FindOtpByOwner(ctx context.Context, ownerID string) (*domain.OtpRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc otpDoc
	if err := r.otps.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	return &domain.OtpRecord{
		OwnerID:   doc.OwnerID,
		Code:      doc.Code,
		Verified:  doc.Verified,
		ExpiresAt: doc.ExpiresAt.UTC(),
	}, nil
}

func (r *CredentialStore) MarkOtpVerified(ctx context.Context, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.otps.UpdateOne(ctx,
		bson.M{"owner_id": ownerID},
		bson.M{"$set": bson.M{"verified": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOtpNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes the store's conflict handling
// depends on.
func (r *CredentialStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}

	_, err = r.otps.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("otp indexes: %w", err)
	}
	return nil
}
