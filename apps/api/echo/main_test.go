package echoapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/report"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
	emailsvc "github.com/trezcool/registrar/services/email"
	"github.com/trezcool/registrar/storage/database/inmem"
	"github.com/trezcool/registrar/tests"
)

var (
	conf = core.NewTestConfig()

	stdRepo   student.Repository
	attRepo   attendance.Repository
	perfRepo  performance.Repository
	staffRepo staff.Repository
	mailSvc   *emailsvc.ConsoleServiceMock
)

func setup(t *testing.T) *Server {
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := inmem.NewDB()
	stdRepo = inmem.NewStudentRepository(db)
	attRepo = inmem.NewAttendanceRepository(db)
	perfRepo = inmem.NewPerformanceRepository(db)
	staffRepo = inmem.NewStaffRepository(db)

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	stdSvc := student.NewService(conf, stdRepo, mailSvc)
	attSvc := attendance.NewService(attRepo)
	perfSvc := performance.NewService(perfRepo)

	// set up server
	return NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		StudentSvc:     stdSvc,
		AttendanceSvc:  attSvc,
		PerformanceSvc: perfSvc,
		ReportSvc:      report.NewService(conf, stdSvc, attSvc, perfSvc),
		StaffSvc:       staff.NewService(staffRepo),
	})
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	session      *http.Cookie
	wantCode     int
	wantLocation string
	wantBody     []string
	wantNotBody  []string
	extra        interface{}
}

func newAuthRequest(method, path string, session *http.Cookie, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, nil, form)
}

func getSession(t *testing.T, usr staff.User) *http.Cookie {
	sm := newSessionManager(conf)
	token, err := sm.GenerateToken(sm.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getSession() failed: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

func getCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLocation != "" {
		if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.wantLocation {
			t.Errorf("failed! location = %v; wantLocation %v", loc, tt.wantLocation)
		}
	}
	body := rec.Body.String()
	for _, want := range tt.wantBody {
		if !strings.Contains(body, want) {
			t.Errorf("failed! body does not contain %q", want)
		}
	}
	for _, notWant := range tt.wantNotBody {
		if strings.Contains(body, notWant) {
			t.Errorf("failed! body contains %q", notWant)
		}
	}
}
