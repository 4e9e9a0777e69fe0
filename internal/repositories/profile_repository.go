package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrDuplicateProfile = errors.New("profile already exists")
)

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.Profile) (models.Profile, error)
	GetByUsername(ctx context.Context, username string) (models.Profile, error)
	GetByExternalID(ctx context.Context, externalID string) (models.Profile, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Create stores a new profile. A second profile for the same external user
// id or username is rejected with ErrDuplicateProfile.
func (r *ProfileRepo) Create(ctx context.Context, profile models.Profile) (models.Profile, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (id, external_user_id, username, avatar_url)
         VALUES ($1, $2, $3, $4)
         RETURNING created_at`,
		profile.ID, profile.ExternalUserID, profile.Username, profile.AvatarURL,
	).Scan(&profile.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return models.Profile{}, ErrDuplicateProfile
		}
		return models.Profile{}, err
	}
	return profile, nil
}

// GetByUsername fetches the profile registered under the given username.
func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT id, external_user_id, username, avatar_url, created_at FROM profiles WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetByExternalID fetches the profile keyed by the auth provider's user id.
func (r *ProfileRepo) GetByExternalID(ctx context.Context, externalID string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile,
		`SELECT id, external_user_id, username, avatar_url, created_at FROM profiles WHERE external_user_id=$1`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}
