package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
)

const staffTable = "staff_user"

var staffColumns = []string{
	"id", "username", "email", "is_staff", "is_active", "password_hash", "created_at", "updated_at", "last_login",
}

type staffRepository struct {
	baseRepository
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db core.DB) *staffRepository {
	return &staffRepository{baseRepository{db: db}}
}

// trapNoRowsErr maps psql "no rows" err to staff.ErrNotFound
func (repo staffRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return staff.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo staffRepository) values(usr staff.User) map[string]interface{} {
	return map[string]interface{}{
		"username":      usr.Username,
		"email":         usr.Email,
		"is_staff":      usr.IsStaff,
		"is_active":     usr.IsActive,
		"password_hash": usr.PasswordHash,
		"updated_at":    usr.UpdatedAt.UTC(),
		"last_login":    usr.LastLogin,
	}
}

func (repo staffRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	cond := sq.Or{sq.Eq{"username": username}}
	if email != "" {
		cond = append(cond, sq.Eq{"email": email})
	}
	sub := psql.Select("1").From(staffTable).Where(cond)
	if len(excludedIDs) > 0 {
		sub = sub.Where(sq.NotEq{"id": excludedIDs})
	}

	var exists bool
	if err := repo.get(ctx, repo.getExec(exec), &exists, sub.Prefix("SELECT EXISTS (").Suffix(")")); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return staff.ErrUserExists
	}
	return nil
}

func (repo staffRepository) CreateUser(ctx context.Context, usr staff.User, exec ...core.DBExecutor) (staff.User, error) {
	usr.ID = uuid.New().String()
	values := repo.values(usr)
	values["id"] = usr.ID
	values["created_at"] = usr.CreatedAt.UTC()

	if _, err := repo.exec(ctx, repo.getExec(exec), psql.Insert(staffTable).SetMap(values)); err != nil {
		if isUniqueViolation(err) {
			return staff.User{}, staff.ErrUserExists
		}
		return staff.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo staffRepository) GetUser(ctx context.Context, filter staff.GetFilter, exec ...core.DBExecutor) (staff.User, error) {
	b := psql.Select(staffColumns...).From(staffTable)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return staff.User{}, staff.ErrNotFound
		}
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		b = b.Where(sq.Eq{"username": filter.Username})
	case filter.UsernameOrEmail != "":
		b = b.Where(sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}})
	default:
		return staff.User{}, staff.ErrNotFound
	}

	var usr staff.User
	if err := repo.get(ctx, repo.getExec(exec), &usr, b.Limit(1)); err != nil {
		return staff.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return usr, nil
}

func (repo staffRepository) UpdateUser(ctx context.Context, usr staff.User, exec ...core.DBExecutor) (staff.User, error) {
	cnt, err := repo.exec(ctx, repo.getExec(exec), psql.
		Update(staffTable).
		SetMap(repo.values(usr)).
		Where(sq.Eq{"id": usr.ID}))
	if err != nil {
		if isUniqueViolation(err) {
			return staff.User{}, staff.ErrUserExists
		}
		return staff.User{}, errors.Wrap(err, "updating user")
	}
	if cnt == 0 {
		return staff.User{}, staff.ErrNotFound
	}
	return usr, nil
}

func (repo staffRepository) UpdateOrCreateUser(ctx context.Context, usr staff.User, exec ...core.DBExecutor) (staff.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}
