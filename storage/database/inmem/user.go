package inmemdb

import (
	"context"

	"github.com/edutok/edutok/core/user"
)

type profileRepository struct {
	db *profileTable
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) SaveProfile(prof user.Profile) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[prof.UID] = prof
}

func (repo *profileRepository) GetProfile(_ context.Context, uid string) (user.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if prof, ok := repo.db.table[uid]; ok {
		return prof, nil
	}
	return user.Profile{}, user.ErrNotFound
}
