package echoapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
)

const (
	sessionCookieName = "registrar_session"
	contextClaimsKey  = "session"
	loginPath         = "/admin/login"
	dashboardPath     = "/admin/dashboard"
)

// Claims represents the session claims of a logged in staff member.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsStaff  bool   `json:"is_staff,omitempty"`
}

type sessionManager struct {
	conf       *core.Config
	signingKey []byte
	method     jwt.SigningMethod
}

func newSessionManager(conf *core.Config) *sessionManager {
	return &sessionManager{
		conf:       conf,
		signingKey: []byte(conf.SecretKey),
		method:     jwt.GetSigningMethod(middleware.AlgorithmHS256),
	}
}

func (sm *sessionManager) GetUserClaims(usr staff.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    sm.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(sm.conf.Server.SessionExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Email:    usr.Email,
		IsStaff:  usr.IsStaff,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func (sm *sessionManager) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(sm.method, claims)
	ss, err := token.SignedString(sm.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (sm *sessionManager) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != sm.method.Alg() {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return sm.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// login starts a session for usr by setting the session cookie.
func (sm *sessionManager) login(ctx echo.Context, usr staff.User) error {
	claims := sm.GetUserClaims(usr)
	token, err := sm.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(claims.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   !(sm.conf.Debug || sm.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextClaimsKey, claims)
	return nil
}

func (sm *sessionManager) logout(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextClaimsKey, nil)
}

// middleware loads the session claims, if any; invalid or expired sessions are treated as anonymous.
func (sm *sessionManager) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if cookie, err := ctx.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if claims, err := sm.parseToken(cookie.Value); err == nil {
				ctx.Set(contextClaimsKey, claims)
			}
		}
		return next(ctx)
	}
}

// staffRequired redirects anonymous visitors to the login page and forbids non staff sessions.
func (sm *sessionManager) staffRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims := getContextClaims(ctx)
		if claims == nil {
			setFlash(ctx, flashError, "Please log in with a staff account to access this page.")
			return ctx.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(ctx.Request().URL.Path))
		}
		if !claims.IsStaff {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) *Claims {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

func getContextUser(ctx echo.Context) staff.User {
	var usr staff.User
	if claims := getContextClaims(ctx); claims != nil {
		usr.ID = claims.Subject
		usr.Username = claims.Username
		usr.Email = claims.Email
		usr.IsStaff = claims.IsStaff
	}
	return usr
}
