package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
	"github.com/trezcool/registrar/tests"
)

func loginForm(uname, pwd string, next ...string) url.Values {
	v := url.Values{"username": {uname}, "password": {pwd}}
	if len(next) > 0 {
		v.Set("next", next[0])
	}
	return v
}

func Test_adminHandler_login(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, staffRepo, "admin", "Pass1234!", true, true)
	testutil.CreateStaff(t, staffRepo, "clerk", "Pass1234!", false, true)
	testutil.CreateStaff(t, staffRepo, "retired", "Pass1234!", true, false)

	invalidCreds := "Invalid username or password."

	tests := []httpTest{
		{
			name:     "missing fields",
			form:     loginForm("", ""),
			wantCode: http.StatusOK,
			wantBody: []string{"this field is required"},
		},
		{
			name:     "unknown user",
			form:     loginForm("nobody", "Pass1234!"),
			wantCode: http.StatusOK,
			wantBody: []string{invalidCreds},
		},
		{
			name:     "wrong password",
			form:     loginForm("admin", "wrong"),
			wantCode: http.StatusOK,
			wantBody: []string{invalidCreds, `value="admin"`},
		},
		{
			name:     "not staff",
			form:     loginForm("clerk", "Pass1234!"),
			wantCode: http.StatusOK,
			wantBody: []string{invalidCreds},
		},
		{
			name:     "inactive staff",
			form:     loginForm("retired", "Pass1234!"),
			wantCode: http.StatusOK,
			wantBody: []string{invalidCreds},
		},
		{
			name:         "staff",
			form:         loginForm("Admin", "Pass1234!"),
			wantCode:     http.StatusFound,
			wantLocation: "/admin/dashboard",
			extra:        true,
		},
		{
			name:         "staff with next",
			form:         loginForm("admin", "Pass1234!", "/1/report"),
			wantCode:     http.StatusFound,
			wantLocation: "/1/report",
			extra:        true,
		},
		{
			name:         "staff with external next",
			form:         loginForm("admin", "Pass1234!", "//evil.example.com"),
			wantCode:     http.StatusFound,
			wantLocation: "/admin/dashboard",
			extra:        true,
		},
		{
			name:         "staff with backslash next",
			form:         loginForm("admin", "Pass1234!", "/\\evil.example.com"),
			wantCode:     http.StatusFound,
			wantLocation: "/admin/dashboard",
			extra:        true,
		},
		{
			name:         "staff with tab next",
			form:         loginForm("admin", "Pass1234!", "/\t/evil.example.com"),
			wantCode:     http.StatusFound,
			wantLocation: "/admin/dashboard",
			extra:        true,
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/admin/login/", tt.form)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			session := getCookie(rec, sessionCookieName)
			if tt.extra == true {
				require.NotNil(t, session)
				assert.True(t, session.HttpOnly)
				claims, err := newSessionManager(conf).parseToken(session.Value)
				require.NoError(t, err)
				assert.Equal(t, admin.ID, claims.Subject)
				assert.True(t, claims.IsStaff)
			} else {
				assert.Nil(t, session)
			}
		})
	}

	usr, err := staffRepo.GetUser(context.Background(), staff.GetFilter{ID: admin.ID})
	require.NoError(t, err)
	assert.True(t, usr.LastLogin.Valid)
}

func Test_adminHandler_dashboard(t *testing.T) {
	app := setup(t)

	testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)
	recent := testutil.CreateStudent(t, stdRepo, "Bob", "Patel", student.ProgramBCA, 2024)
	admin := testutil.CreateStaff(t, staffRepo, "admin", "Pass1234!", true, true)
	clerk := testutil.CreateStaff(t, staffRepo, "clerk", "Pass1234!", false, true)

	loginRedirect := "/admin/login?next=" + url.QueryEscape("/admin/dashboard")
	tampered := getSession(t, admin)
	tampered.Value += "x"

	tests := []httpTest{
		{
			name:         "anonymous",
			wantCode:     http.StatusFound,
			wantLocation: loginRedirect,
		},
		{
			name:     "not staff",
			session:  getSession(t, clerk),
			wantCode: http.StatusForbidden,
			wantBody: []string{"permission denied"},
		},
		{
			name:         "tampered session",
			session:      tampered,
			wantCode:     http.StatusFound,
			wantLocation: loginRedirect,
		},
		{
			name:     "staff",
			session:  getSession(t, admin),
			wantCode: http.StatusOK,
			wantBody: []string{
				`id="total-students">2<`, recent.FullName(),
				"Bachelor of Computer Applications", "Log out (admin)",
			},
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/admin/dashboard", tt.session, nil)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminHandler_loginForm(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, staffRepo, "admin", "Pass1234!", true, true)

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/admin/login?next=/2", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantBody: []string{`name="next" value="/2"`}}, rec)
	})

	t.Run("already logged in", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/admin/login", getSession(t, admin), nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusFound, wantLocation: "/admin/dashboard"}, rec)
	})
}

func Test_adminHandler_logout(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, staffRepo, "admin", "Pass1234!", true, true)

	req, rec := newAuthRequest(http.MethodPost, "/admin/logout", getSession(t, admin), nil)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusFound, wantLocation: "/admin/login"}, rec)

	session := getCookie(rec, sessionCookieName)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
	assert.True(t, session.MaxAge < 0)
}

func Test_adminHandler_logoutGET(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateStaff(t, staffRepo, "admin", "Pass1234!", true, true)

	req, rec := newAuthRequest(http.MethodGet, "/admin/logout", getSession(t, admin), nil)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Nil(t, getCookie(rec, sessionCookieName))
}

func Test_safeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: dashboardPath},
		{next: "/1/report", want: "/1/report"},
		{next: "/attendance?batch=MCA2024", want: "/attendance?batch=MCA2024"},
		{next: "relative", want: dashboardPath},
		{next: "https://evil.example.com", want: dashboardPath},
		{next: "//evil.example.com", want: dashboardPath},
		{next: "/\\evil.example.com", want: dashboardPath},
		{next: "/\\/evil.example.com", want: dashboardPath},
		{next: "/\t/evil.example.com", want: dashboardPath},
		{next: "/\n/evil.example.com", want: dashboardPath},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func Test_health(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/health", nil)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantBody: []string{"ok"}}, rec)
}
