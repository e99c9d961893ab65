package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/student"
)

const attendancePath = "/attendance"

type (
	attendanceHandler struct {
		stdSvc student.Service
		svc    attendance.Service
	}

	attendanceData struct {
		Date     string
		Batch    string
		Batches  []student.Batch
		Students []student.Student
		Presence map[int64]bool
	}
)

func registerAttendanceRoutes(app *echo.Echo, deps ServerDeps) {
	h := attendanceHandler{stdSvc: deps.StudentSvc, svc: deps.AttendanceSvc}

	app.GET(attendancePath, h.manage)
	app.POST(attendancePath, h.mark)
}

// batchStudents returns the students of the given batch, or every student when the batch code is empty
// or unknown.
func (h attendanceHandler) batchStudents(ctx echo.Context, batch string) ([]student.Student, error) {
	var filter student.QueryFilter
	if program, year, ok := student.ParseBatchCode(batch); ok {
		filter.Program = string(program)
		filter.AdmissionYear = year
	}
	students, err := h.stdSvc.Query(ctx.Request().Context(), &filter, nil)
	return students, errors.Wrap(err, "querying students")
}

func (h attendanceHandler) render(ctx echo.Context, date time.Time, batch string) error {
	reqCtx := ctx.Request().Context()
	data := attendanceData{Date: date.Format(core.DateLayout), Batch: batch}

	var err error
	if data.Batches, err = h.stdSvc.Batches(reqCtx); err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if data.Students, err = h.batchStudents(ctx, batch); err != nil {
		return err
	}
	if data.Presence, err = h.svc.PresenceOn(reqCtx, date); err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	return render(ctx, http.StatusOK, "attendance", "Attendance", data)
}

func (h attendanceHandler) manage(ctx echo.Context) error {
	date := time.Now()
	if raw := ctx.QueryParam("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			addMessage(ctx, flashError, "Enter a valid date (YYYY-MM-DD).")
		} else {
			date = d
		}
	}
	return h.render(ctx, date, core.CleanString(ctx.QueryParam("batch")))
}

// mark records the presence of every listed student on the submitted date: checked students
// (attendance_<id>=present) are present, the others absent.
func (h attendanceHandler) mark(ctx echo.Context) error {
	batch := core.CleanString(ctx.FormValue("batch"))

	rawDate := core.CleanString(ctx.FormValue("date"))
	if rawDate == "" {
		addMessage(ctx, flashError, "Please select a date.")
		return h.render(ctx, time.Now(), batch)
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		addMessage(ctx, flashError, "Enter a valid date (YYYY-MM-DD).")
		return h.render(ctx, time.Now(), batch)
	}

	students, err := h.batchStudents(ctx, batch)
	if err != nil {
		return err
	}
	marks := make([]attendance.Mark, len(students))
	for i, std := range students {
		marks[i] = attendance.Mark{
			StudentPK: std.ID,
			IsPresent: ctx.FormValue(fmt.Sprintf("attendance_%d", std.ID)) == "present",
		}
	}
	if err = h.svc.MarkBatch(ctx.Request().Context(), date, marks); err != nil {
		return err
	}

	setFlash(ctx, flashSuccess, fmt.Sprintf("Attendance for %s has been marked successfully!", date.Format(core.DateLayout)))
	query := url.Values{"date": {date.Format(core.DateLayout)}}
	if batch != "" {
		query.Set("batch", batch)
	}
	return ctx.Redirect(http.StatusFound, attendancePath+"?"+query.Encode())
}
