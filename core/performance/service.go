package performance

import (
	"context"
	"errors"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound       = errors.New("performance not found")
	ErrUnknownStudent = errors.New("select a valid student")
)

type (
	Repository interface {
		// CreatePerformance returns ErrUnknownStudent when p.StudentPK matches no student.
		CreatePerformance(ctx context.Context, perf Performance, exec ...core.DBExecutor) (Performance, error)
		GetPerformance(ctx context.Context, id int64, exec ...core.DBExecutor) (Performance, error)
		// QueryPerformances returns the records of one student (all students when studentPK is 0), latest exam first.
		QueryPerformances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) ([]Performance, error)
		// UpdatePerformance returns ErrUnknownStudent when p.StudentPK matches no student.
		UpdatePerformance(ctx context.Context, perf Performance, exec ...core.DBExecutor) (Performance, error)
		CountPerformances(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, data Info) (Performance, error)
		Update(ctx context.Context, id int64, data Info) (Performance, error)
		GetByID(ctx context.Context, id int64) (Performance, error)
		QueryAll(ctx context.Context) ([]Performance, error)
		ForStudent(ctx context.Context, studentPK int64) ([]Performance, error)
		Summarize(ctx context.Context, studentPK int64) (Summary, error)
		Count(ctx context.Context) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Validate cleans pi and validates it against the form rules.
func (pi *Info) Validate(validate *validator.Validate, translator ut.Translator) error {
	pi.clean()
	return core.TranslateValidationErrors(validate.Struct(pi), translator)
}

// trapUnknownStudent maps ErrUnknownStudent to a validation error on the student field.
func trapUnknownStudent(err error, msg string) error {
	if pkgerrors.Cause(err) == ErrUnknownStudent {
		return core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student", Error: ErrUnknownStudent.Error()})
	}
	return pkgerrors.Wrap(err, msg)
}

func (svc *service) Create(ctx context.Context, data Info) (Performance, error) {
	now := NowFunc().UTC()
	perf := Performance{CreatedAt: now, UpdatedAt: now}
	data.apply(&perf)

	perf, err := svc.repo.CreatePerformance(ctx, perf)
	if err != nil {
		return Performance{}, trapUnknownStudent(err, "creating performance")
	}
	return perf, nil
}

func (svc *service) Update(ctx context.Context, id int64, data Info) (Performance, error) {
	perf, err := svc.repo.GetPerformance(ctx, id)
	if err != nil {
		return Performance{}, err
	}
	data.apply(&perf)
	perf.UpdatedAt = NowFunc().UTC()

	perf, err = svc.repo.UpdatePerformance(ctx, perf)
	if err != nil {
		return Performance{}, trapUnknownStudent(err, "updating performance")
	}
	return perf, nil
}

func (svc *service) GetByID(ctx context.Context, id int64) (Performance, error) {
	return svc.repo.GetPerformance(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Performance, error) {
	return svc.repo.QueryPerformances(ctx, 0)
}

func (svc *service) ForStudent(ctx context.Context, studentPK int64) ([]Performance, error) {
	return svc.repo.QueryPerformances(ctx, studentPK)
}

func (svc *service) Summarize(ctx context.Context, studentPK int64) (Summary, error) {
	perfs, err := svc.repo.QueryPerformances(ctx, studentPK)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(perfs), nil
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountPerformances(ctx)
}
