package inmem

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db}
}

// taken reports whether another user holds username or email; callers hold the lock.
func (repo *staffRepository) taken(username, email string, excludedIDs []string) bool {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users {
		if excluded[usr.ID] {
			continue
		}
		if usr.Username == username || (email != "" && usr.Email == email) {
			return true
		}
	}
	return false
}

func (repo *staffRepository) CheckUniqueness(_ context.Context, username, email string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.taken(username, email, excludedIDs) {
		return staff.ErrUserExists
	}
	return nil
}

func (repo *staffRepository) CreateUser(_ context.Context, usr staff.User, _ ...core.DBExecutor) (staff.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.taken(usr.Username, usr.Email, nil) {
		return staff.User{}, staff.ErrUserExists
	}
	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *staffRepository) GetUser(_ context.Context, filter staff.GetFilter, _ ...core.DBExecutor) (staff.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return usr, nil
		}
		return staff.User{}, staff.ErrNotFound
	}
	for _, usr := range repo.db.users {
		switch {
		case filter.Username != "" && usr.Username == filter.Username:
			return usr, nil
		case filter.UsernameOrEmail != "" &&
			(usr.Username == filter.UsernameOrEmail || (usr.Email != "" && usr.Email == filter.UsernameOrEmail)):
			return usr, nil
		}
	}
	return staff.User{}, staff.ErrNotFound
}

func (repo *staffRepository) UpdateUser(_ context.Context, usr staff.User, _ ...core.DBExecutor) (staff.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return staff.User{}, staff.ErrNotFound
	}
	if repo.taken(usr.Username, usr.Email, []string{usr.ID}) {
		return staff.User{}, staff.ErrUserExists
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *staffRepository) UpdateOrCreateUser(ctx context.Context, usr staff.User, exec ...core.DBExecutor) (staff.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}
