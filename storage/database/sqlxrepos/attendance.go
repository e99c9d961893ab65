package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
)

const attendanceTable = "attendance"

var attendanceColumns = []string{"id", "student_pk", "date", "is_present", "created_at"}

type attendanceRepository struct {
	baseRepository
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{baseRepository{db: db}}
}

func (repo attendanceRepository) UpsertAttendances(ctx context.Context, date time.Time, marks []attendance.Mark, exec ...core.DBExecutor) error {
	if len(marks) == 0 {
		return nil
	}
	now := time.Now().UTC()
	date = core.Date(date)

	// a single statement: all marks are applied or none is
	b := psql.Insert(attendanceTable).Columns("student_pk", "date", "is_present", "created_at")
	for _, m := range marks {
		b = b.Values(m.StudentPK, date, m.IsPresent, now)
	}
	b = b.Suffix("ON CONFLICT (student_pk, date) DO UPDATE SET is_present = EXCLUDED.is_present")

	if _, err := repo.exec(ctx, repo.getExec(exec), b); err != nil {
		return errors.Wrap(err, "upserting attendances")
	}
	return nil
}

func (repo attendanceRepository) query(ctx context.Context, where sq.Eq, exec []core.DBExecutor) ([]attendance.Attendance, error) {
	b := psql.Select(attendanceColumns...).
		From(attendanceTable).
		Where(where).
		OrderBy("date DESC", "student_pk")

	atts := make([]attendance.Attendance, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &atts, b); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	return atts, nil
}

func (repo attendanceRepository) QueryStudentAttendances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	return repo.query(ctx, sq.Eq{"student_pk": studentPK}, exec)
}

func (repo attendanceRepository) QueryAttendancesOnDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	return repo.query(ctx, sq.Eq{"date": core.Date(date)}, exec)
}

func (repo attendanceRepository) SummarizeStudentAttendances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) (attendance.Summary, error) {
	var sum attendance.Summary
	err := repo.get(ctx, repo.getExec(exec), &sum, psql.
		Select("COUNT(*) AS total", "COUNT(*) FILTER (WHERE is_present) AS present").
		From(attendanceTable).
		Where(sq.Eq{"student_pk": studentPK}))
	if err != nil {
		return attendance.Summary{}, errors.Wrap(err, "summarizing attendances")
	}
	return sum, nil
}

func (repo attendanceRepository) CountAttendances(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := repo.get(ctx, repo.getExec(exec), &cnt, psql.Select("COUNT(*)").From(attendanceTable)); err != nil {
		return 0, errors.Wrap(err, "counting attendances")
	}
	return cnt, nil
}

func (repo attendanceRepository) CountAttendancesOnDate(ctx context.Context, date time.Time, exec ...core.DBExecutor) (int, error) {
	var cnt int
	err := repo.get(ctx, repo.getExec(exec), &cnt, psql.
		Select("COUNT(*)").
		From(attendanceTable).
		Where(sq.Eq{"date": core.Date(date)}))
	if err != nil {
		return 0, errors.Wrap(err, "counting attendances")
	}
	return cnt, nil
}
