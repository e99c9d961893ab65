package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		// UpsertAttendances creates or updates the attendance of every mark on date, in a single transaction.
		UpsertAttendances(ctx context.Context, date time.Time, marks []Mark, exec ...core.DBExecutor) error
		// QueryStudentAttendances returns the records of a student, most recent first.
		QueryStudentAttendances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) ([]Attendance, error)
		QueryAttendancesOnDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) ([]Attendance, error)
		SummarizeStudentAttendances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) (Summary, error)
		CountAttendances(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountAttendancesOnDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		// MarkBatch upserts one attendance per mark for date.
		MarkBatch(ctx context.Context, date time.Time, marks []Mark) error
		ForStudent(ctx context.Context, studentPK int64) ([]Attendance, error)
		// PresenceOn maps student PKs to their presence on date, for students already marked.
		PresenceOn(ctx context.Context, date time.Time) (map[int64]bool, error)
		Summarize(ctx context.Context, studentPK int64) (Summary, error)
		Count(ctx context.Context) (int, error)
		CountToday(ctx context.Context) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) MarkBatch(ctx context.Context, date time.Time, marks []Mark) error {
	if len(marks) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.UpsertAttendances(ctx, core.Date(date), marks), "marking attendances")
}

func (svc *service) ForStudent(ctx context.Context, studentPK int64) ([]Attendance, error) {
	return svc.repo.QueryStudentAttendances(ctx, studentPK)
}

func (svc *service) PresenceOn(ctx context.Context, date time.Time) (map[int64]bool, error) {
	atts, err := svc.repo.QueryAttendancesOnDate(ctx, core.Date(date))
	if err != nil {
		return nil, err
	}
	presence := make(map[int64]bool, len(atts))
	for _, a := range atts {
		presence[a.StudentPK] = a.IsPresent
	}
	return presence, nil
}

func (svc *service) Summarize(ctx context.Context, studentPK int64) (Summary, error) {
	return svc.repo.SummarizeStudentAttendances(ctx, studentPK)
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountAttendances(ctx)
}

func (svc *service) CountToday(ctx context.Context) (int, error) {
	return svc.repo.CountAttendancesOnDate(ctx, core.Date(NowFunc()))
}
