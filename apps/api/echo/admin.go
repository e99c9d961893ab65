package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core/report"
	"github.com/trezcool/registrar/core/staff"
)

type (
	adminHandler struct {
		validate   *validator.Validate
		translator ut.Translator
		sessions   *sessionManager
		staffSvc   staff.Service
		reportSvc  report.Service
	}

	loginData struct {
		Form form
		Next string
	}
)

func registerAdminRoutes(app *echo.Echo, staffOnly echo.MiddlewareFunc, sessions *sessionManager, deps ServerDeps) {
	h := adminHandler{
		validate:   deps.Validate,
		translator: deps.Translator,
		sessions:   sessions,
		staffSvc:   deps.StaffSvc,
		reportSvc:  deps.ReportSvc,
	}

	g := app.Group("/admin")
	g.GET("/login", h.loginForm)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/dashboard", h.dashboard, staffOnly)
}

// safeNext only allows local redirects after login.
// Browsers read `\` as `/` and drop tabs and newlines, so `/\host` and `/\t/host` are rejected too.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\t\r\n") {
		return dashboardPath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return dashboardPath
	}
	return next
}

func (h adminHandler) loginForm(ctx echo.Context) error {
	next := safeNext(ctx.QueryParam("next"))
	if claims := getContextClaims(ctx); claims != nil && claims.IsStaff {
		return ctx.Redirect(http.StatusFound, next)
	}
	return render(ctx, http.StatusOK, "admin_login", "Admin Login", loginData{Next: next})
}

func (h adminHandler) login(ctx echo.Context) error {
	next := safeNext(ctx.FormValue("next"))

	var data staff.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(h.validate, h.translator); err != nil {
		fields, err := formErrors(err)
		if err != nil {
			return err
		}
		return render(ctx, http.StatusOK, "admin_login", "Admin Login", loginData{
			Form: form{Values: staff.LoginRequest{Username: data.Username}, Errors: fields},
			Next: next,
		})
	}

	usr, err := h.staffSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) != staff.ErrInvalidCredentials {
			return errors.Wrap(err, "authenticating user")
		}
		addMessage(ctx, flashError, "Invalid username or password.")
		return render(ctx, http.StatusOK, "admin_login", "Admin Login", loginData{
			Form: form{Values: staff.LoginRequest{Username: data.Username}},
			Next: next,
		})
	}

	if err = h.sessions.login(ctx, usr); err != nil {
		return err
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Welcome back, %s!", usr.Username))
	return ctx.Redirect(http.StatusFound, next)
}

func (h adminHandler) logout(ctx echo.Context) error {
	h.sessions.logout(ctx)
	setFlash(ctx, flashInfo, "You have been logged out.")
	return ctx.Redirect(http.StatusFound, loginPath)
}

func (h adminHandler) dashboard(ctx echo.Context) error {
	dash, err := h.reportSvc.Dashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return render(ctx, http.StatusOK, "admin_dashboard", "Dashboard", dash)
}
