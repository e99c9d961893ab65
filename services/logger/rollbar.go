package logsvc

import (
	"fmt"
	"log"
	"net/http"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a standard logger.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Address)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{
		"app":         conf.AppName,
		"institution": conf.Institution.Name,
	})
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry sorts the args of a log call into what Rollbar reports separately.
type entry struct {
	user    *staff.User
	request *http.Request
	extras  map[string]interface{}
	lines   []string // for the standard logger
	others  []interface{}
}

// newEntry accepts: error, map[string]interface{}, staff.User, *http.Request, student.Student.
// The first logged in staff.User becomes the Rollbar person; students and maps are merged into the extras.
func newEntry(args []interface{}) entry {
	var e entry
	addExtra := func(key string, val interface{}) {
		if e.extras == nil {
			e.extras = make(map[string]interface{})
		}
		e.extras[key] = val
	}

	for _, arg := range args {
		switch val := arg.(type) {
		case staff.User:
			if e.user == nil && val.ID != "" {
				usr := val
				e.user = &usr
			}
		case *http.Request:
			if val != nil && e.request == nil {
				e.request = val
				e.lines = append(e.lines, fmt.Sprintf("request: %s %s", val.Method, val.URL.RequestURI()))
			}
		case student.Student:
			addExtra("student_pk", val.ID)
			addExtra("student_id", val.StudentID)
			addExtra("program", string(val.Program))
			e.lines = append(e.lines, fmt.Sprintf("student: %d (%s)", val.ID, val.StudentID))
		case map[string]interface{}:
			for k, v := range val {
				addExtra(k, v)
			}
			e.lines = append(e.lines, fmt.Sprintf("%+v", val))
		case nil:
		default:
			e.others = append(e.others, arg)
			e.lines = append(e.lines, fmt.Sprintf("%+v", arg))
		}
	}
	return e
}

// rollbarArgs returns the interfaces rollbar-go expects, setting the person globally.
func (e entry) rollbarArgs(msg string) []interface{} {
	if e.user != nil {
		rollbar.SetPerson(e.user.ID, e.user.Username, e.user.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := make([]interface{}, 0, len(e.others)+3)
	args = append(args, msg)
	args = append(args, e.others...)
	if e.request != nil {
		args = append(args, e.request)
	}
	if e.extras != nil {
		args = append(args, e.extras)
	}
	return args
}

func (l RollbarLogger) print(msg string, e entry) {
	l.std.Println(msg)
	for _, line := range e.lines {
		l.std.Println(line)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	e := newEntry(args)
	rollbar.Debug(e.rollbarArgs(msg)...)
	l.print(msg, e)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := newEntry(args)
	rollbar.Info(e.rollbarArgs(msg)...)
	l.print(msg, e)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := newEntry(args)
	rollbar.Warning(e.rollbarArgs(msg)...)
	l.print(msg, e)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := newEntry(args)
	rollbar.Error(e.rollbarArgs(msg)...)
	l.print(msg, e)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := newEntry(args)
	rollbar.Critical(e.rollbarArgs(msg)...)
	l.print(msg, e)
	rollbar.Wait()
	l.std.Fatal(msg)
}
