package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/student"
)

const performancePath = "/performance"

type (
	performanceHandler struct {
		validate   *validator.Validate
		translator ut.Translator
		stdSvc     student.Service
		svc        performance.Service
	}

	performanceData struct {
		Form         form
		Students     []student.Student
		Performances []performance.Performance
		Performance  *performance.Performance // set when editing
	}
)

func registerPerformanceRoutes(app *echo.Echo, deps ServerDeps) {
	h := performanceHandler{
		validate:   deps.Validate,
		translator: deps.Translator,
		stdSvc:     deps.StudentSvc,
		svc:        deps.PerformanceSvc,
	}

	app.GET(performancePath, h.manage)
	app.POST(performancePath, h.create)
	app.GET(performancePath+"/:id/edit", h.editForm)
	app.POST(performancePath+"/:id/edit", h.edit)
}

func (h performanceHandler) render(ctx echo.Context, data performance.Info, fErr error, perf *performance.Performance) error {
	fields, err := formErrors(fErr)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	pd := performanceData{Form: form{Values: data, Errors: fields}, Performance: perf}
	if pd.Students, err = h.stdSvc.Query(reqCtx, nil, nil); err != nil {
		return errors.Wrap(err, "querying students")
	}

	if perf != nil {
		return render(ctx, http.StatusOK, "performance_form", "Edit Performance", pd)
	}
	if pd.Performances, err = h.svc.QueryAll(reqCtx); err != nil {
		return errors.Wrap(err, "querying performances")
	}
	return render(ctx, http.StatusOK, "performance", "Performance", pd)
}

// bind binds the submitted form; a blank total defaults to performance.DefaultTotalMarks.
func (h performanceHandler) bind(ctx echo.Context) (performance.Info, error) {
	var data performance.Info
	if err := ctx.Bind(&data); err != nil {
		return data, err
	}
	if core.CleanString(ctx.FormValue("total_marks")) == "" {
		data.TotalMarks = performance.DefaultTotalMarks
	}
	return data, nil
}

func (h performanceHandler) manage(ctx echo.Context) error {
	data := performance.Info{
		TotalMarks: performance.DefaultTotalMarks,
		ExamDate:   time.Now().Format(core.DateLayout),
	}
	if pk, err := strconv.ParseInt(ctx.QueryParam("student"), 10, 64); err == nil {
		data.StudentPK = pk
	}
	return h.render(ctx, data, nil, nil)
}

func (h performanceHandler) create(ctx echo.Context) error {
	data, err := h.bind(ctx)
	if err != nil {
		return err
	}
	if err = data.Validate(h.validate, h.translator); err != nil {
		return h.render(ctx, data, err, nil)
	}

	perf, err := h.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return h.render(ctx, data, err, nil)
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Performance record for %s added successfully!", perf.Subject))
	return ctx.Redirect(http.StatusFound, performancePath)
}

func (h performanceHandler) getPerformance(ctx echo.Context) (performance.Performance, error) {
	id, err := pathID(ctx, "id")
	if err != nil {
		return performance.Performance{}, err
	}
	perf, err := h.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == performance.ErrNotFound {
			return performance.Performance{}, errHttpNotFound
		}
		return performance.Performance{}, errors.Wrap(err, "getting performance")
	}
	return perf, nil
}

func (h performanceHandler) editForm(ctx echo.Context) error {
	perf, err := h.getPerformance(ctx)
	if err != nil {
		return err
	}
	return h.render(ctx, performance.InfoFromPerformance(perf), nil, &perf)
}

func (h performanceHandler) edit(ctx echo.Context) error {
	perf, err := h.getPerformance(ctx)
	if err != nil {
		return err
	}

	data, err := h.bind(ctx)
	if err != nil {
		return err
	}
	if err = data.Validate(h.validate, h.translator); err != nil {
		return h.render(ctx, data, err, &perf)
	}

	updated, err := h.svc.Update(ctx.Request().Context(), perf.ID, data)
	if err != nil {
		if errors.Cause(err) == performance.ErrNotFound {
			return errHttpNotFound
		}
		return h.render(ctx, data, err, &perf)
	}
	setFlash(ctx, flashSuccess, fmt.Sprintf("Performance record for %s updated successfully!", updated.Subject))
	return ctx.Redirect(http.StatusFound, studentPath(updated.StudentPK))
}
