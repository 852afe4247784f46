package services

import (
	"context"

	"salesbackend/cache"
	"salesbackend/models"
	"salesbackend/store"
)

type ProfileService struct {
	store *store.Store
	cache cache.Cache
}

func NewProfileService(s *store.Store, c cache.Cache) *ProfileService {
	return &ProfileService{store: s, cache: c}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	key := cache.ProfileKey(userID)
	var cached models.Profile
	if readCache(ctx, s.cache, key, &cached) && !cached.Empty() {
		return &cached, nil
	}

	user, err := s.store.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fromStore(err, "User")
	}
	if user.Profile.Empty() {
		return nil, newError(ErrNotFound, "No profile found")
	}

	writeCache(ctx, s.cache, key, user.Profile)
	return &user.Profile, nil
}

// UpdateProfile merges the provided fields into the stored profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update models.UpdateProfile) (*models.Profile, error) {
	if update.Empty() {
		return nil, newError(ErrValidation, "No valid fields to update")
	}

	profile, err := s.store.Users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fromStore(err, "User")
	}

	invalidate(ctx, s.cache, cache.ProfileKey(userID))
	return profile, nil
}
