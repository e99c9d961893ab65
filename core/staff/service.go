package staff

import (
	"context"
	"errors"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/registrar/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUserExists         = errors.New("a user with this username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUserExists when another user (not in excludedIDs) holds username or email.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs []string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service interface {
		// Authenticate returns the account matching the credentials when it may open an admin session.
		// Unknown users, wrong passwords and non-staff or inactive accounts all yield ErrInvalidCredentials.
		Authenticate(ctx context.Context, username, password string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		Create(ctx context.Context, data NewUser) (User, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Validate cleans nu, validates it and checks that username and email are not taken.
func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, translator ut.Translator, repo Repository) error {
	nu.clean()
	if err := core.TranslateValidationErrors(validate.Struct(nu), translator); err != nil {
		return err
	}
	if err := repo.CheckUniqueness(ctx, nu.Username, nu.Email, nil); err != nil {
		if err == ErrUserExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (lr *LoginRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.TranslateValidationErrors(validate.Struct(lr), translator)
}

func (svc *service) Authenticate(ctx context.Context, username, password string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(username, true /* lower */)})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(password); err != nil || !usr.CanLogin() {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = null.TimeFrom(NowFunc().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) Create(ctx context.Context, data NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Username:  data.Username,
		Email:     data.Email,
		IsStaff:   data.IsStaff,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(data.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}
