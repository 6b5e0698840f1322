package social

import (
	"context"

	"github.com/LivSterling/skill-issued-server/model"
)

// Profile reads live in the same store so the service and cache share one
// error taxonomy and one database handle.

// GetProfile returns a profile by id.
func (s *Store) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	var p model.Profile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// GetProfileByAccount returns the profile owned by the given account.
func (s *Store) GetProfileByAccount(ctx context.Context, accountID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// GetProfileByUsername returns the profile with the given username.
func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// CreateProfile inserts a new profile. Duplicate usernames map to Conflict.
func (s *Store) CreateProfile(ctx context.Context, p *model.Profile) error {
	return wrapErr(s.db.WithContext(ctx).Create(p).Error)
}

// SaveProfile persists owner edits to an existing profile.
func (s *Store) SaveProfile(ctx context.Context, p *model.Profile) error {
	return wrapErr(s.db.WithContext(ctx).Save(p).Error)
}

// ProfileExists reports whether a profile row exists for id.
func (s *Store) ProfileExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Count(&n).Error
	return n > 0, wrapErr(err)
}

// GetProfilesByIDs returns the profiles for the given ids, keyed by id.
func (s *Store) GetProfilesByIDs(ctx context.Context, ids []int64) (map[int64]model.Profile, error) {
	out := make(map[int64]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []model.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, wrapErr(err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}
