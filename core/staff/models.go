package staff

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/registrar/core"
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	IsStaff      bool      `db:"is_staff"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"` // UTC
	UpdatedAt    time.Time `db:"updated_at"` // UTC
	LastLogin    null.Time `db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// CanLogin reports whether the account may open an admin session.
func (u *User) CanLogin() bool {
	return u.IsStaff && u.IsActive
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `form:"username" validate:"required,min=3,max=150,alphanum_"`
	Email    string `form:"email" validate:"omitempty,email"`
	Password string `form:"password" validate:"required"`
	IsStaff  bool   `form:"is_staff"`
}

func (nu *NewUser) clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

// GetFilter selects a single User: by ID, by Username, or by UsernameOrEmail (matching either column).
type GetFilter struct {
	ID              string
	Username        string
	UsernameOrEmail string
}

// LoginRequest is the admin login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
