package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core/report"
	"github.com/trezcool/registrar/core/student"
)

type (
	studentHandler struct {
		validate   *validator.Validate
		translator ut.Translator
		svc        student.Service
		reportSvc  report.Service
	}

	studentListData struct {
		Students  []student.Student
		Filter    student.QueryFilter
		Programs  []student.Choice
		Semesters []int
	}

	studentFormData struct {
		Form        form
		Student     *student.Student // nil on creation
		Programs    []student.Choice
		Genders     []student.Choice
		BloodGroups []student.Choice
		Semesters   []int
	}
)

func registerStudentRoutes(app *echo.Echo, staffOnly echo.MiddlewareFunc, deps ServerDeps) {
	h := studentHandler{
		validate:   deps.Validate,
		translator: deps.Translator,
		svc:        deps.StudentSvc,
		reportSvc:  deps.ReportSvc,
	}

	app.GET("/", h.list)
	app.GET("/create", h.createForm)
	app.POST("/create", h.create)
	app.GET("/:id", h.detail)
	app.GET("/:id/report", h.report)
	app.GET("/:id/edit", h.editForm)
	app.POST("/:id/edit", h.edit)
	app.POST("/:id/delete", h.delete, staffOnly)
}

func studentPath(id int64) string {
	return fmt.Sprintf("/%d", id)
}

func (h studentHandler) list(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	students, err := h.svc.Query(ctx.Request().Context(), &filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return render(ctx, http.StatusOK, "student_list", "Students", studentListData{
		Students:  students,
		Filter:    filter,
		Programs:  student.Programs,
		Semesters: student.Semesters,
	})
}

func (h studentHandler) renderForm(ctx echo.Context, data student.Info, fErr error, std *student.Student) error {
	fields, err := formErrors(fErr)
	if err != nil {
		return err
	}

	title := "Add Student"
	if std != nil {
		title = "Edit " + std.FullName()
	}
	return render(ctx, http.StatusOK, "student_form", title, studentFormData{
		Form:        form{Values: data, Errors: fields},
		Student:     std,
		Programs:    student.Programs,
		Genders:     student.Genders,
		BloodGroups: student.BloodGroups,
		Semesters:   student.Semesters,
	})
}

func (h studentHandler) createForm(ctx echo.Context) error {
	return h.renderForm(ctx, student.Info{Country: student.DefaultCountry, Semester: 1}, nil, nil)
}

func (h studentHandler) create(ctx echo.Context) error {
	var data student.Info
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(h.validate, h.translator); err != nil {
		return h.renderForm(ctx, data, err, nil)
	}

	std, err := h.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return h.renderForm(ctx, data, err, nil)
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Student %s created successfully with ID: %s", std.FullName(), std.StudentID))
	return ctx.Redirect(http.StatusFound, studentPath(std.ID))
}

func (h studentHandler) getStudent(ctx echo.Context) (student.Student, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return student.Student{}, err
	}
	std, err := h.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	ctx.Set(contextStudentKey, std)
	return std, nil
}

func (h studentHandler) studentReport(ctx echo.Context) (report.StudentReport, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return report.StudentReport{}, err
	}
	rep, err := h.reportSvc.StudentReport(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return report.StudentReport{}, errHttpNotFound
		}
		return report.StudentReport{}, errors.Wrap(err, "building student report")
	}
	return rep, nil
}

func (h studentHandler) detail(ctx echo.Context) error {
	rep, err := h.studentReport(ctx)
	if err != nil {
		return err
	}
	return render(ctx, http.StatusOK, "student_detail", rep.Student.FullName(), rep)
}

func (h studentHandler) report(ctx echo.Context) error {
	rep, err := h.studentReport(ctx)
	if err != nil {
		return err
	}
	if rep.AttendanceWarning {
		addMessage(ctx, flashWarning, fmt.Sprintf("Low attendance: %.2f%% of classes attended.", rep.Attendance.Percentage()))
	}
	return render(ctx, http.StatusOK, "student_report", "Report: "+rep.Student.FullName(), rep)
}

func (h studentHandler) editForm(ctx echo.Context) error {
	std, err := h.getStudent(ctx)
	if err != nil {
		return err
	}
	return h.renderForm(ctx, student.InfoFromStudent(std), nil, &std)
}

func (h studentHandler) edit(ctx echo.Context) error {
	std, err := h.getStudent(ctx)
	if err != nil {
		return err
	}

	var data student.Info
	if err = ctx.Bind(&data); err != nil {
		return err
	}
	if err = data.Validate(h.validate, h.translator); err != nil {
		return h.renderForm(ctx, data, err, &std)
	}

	std, err = h.svc.Update(ctx.Request().Context(), std.ID, data)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return h.renderForm(ctx, data, err, &std)
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Student %s updated successfully!", std.FullName()))
	return ctx.Redirect(http.StatusFound, studentPath(std.ID))
}

func (h studentHandler) delete(ctx echo.Context) error {
	std, err := h.getStudent(ctx)
	if err != nil {
		return err
	}
	if err = h.svc.Delete(ctx.Request().Context(), std.ID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting student")
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Student %s deleted.", std))
	return ctx.Redirect(http.StatusFound, "/")
}
