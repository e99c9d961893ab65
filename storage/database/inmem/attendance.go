package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertAttendances(_ context.Context, date time.Time, marks []attendance.Mark, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	date = core.Date(date)
	// all or nothing: check foreign keys first
	for _, m := range marks {
		if _, ok := repo.db.students[m.StudentPK]; !ok {
			return errors.Errorf("upserting attendances: unknown student %d", m.StudentPK)
		}
	}

	now := time.Now().UTC()
	for _, m := range marks {
		updated := false
		for pk, a := range repo.db.attendances {
			if a.StudentPK == m.StudentPK && a.Date.Equal(date) {
				a.IsPresent = m.IsPresent
				repo.db.attendances[pk] = a
				updated = true
				break
			}
		}
		if !updated {
			repo.db.attendanceSeq++
			repo.db.attendances[repo.db.attendanceSeq] = attendance.Attendance{
				ID:        repo.db.attendanceSeq,
				StudentPK: m.StudentPK,
				Date:      date,
				IsPresent: m.IsPresent,
				CreatedAt: now,
			}
		}
	}
	return nil
}

func (repo *attendanceRepository) filter(keep func(a attendance.Attendance) bool) []attendance.Attendance {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	atts := make([]attendance.Attendance, 0)
	for _, a := range repo.db.attendances {
		if keep(a) {
			atts = append(atts, a)
		}
	}
	sort.Slice(atts, func(i, j int) bool {
		if atts[i].Date.Equal(atts[j].Date) {
			return atts[i].StudentPK < atts[j].StudentPK
		}
		return atts[i].Date.After(atts[j].Date)
	})
	return atts
}

func (repo *attendanceRepository) QueryStudentAttendances(_ context.Context, studentPK int64, _ ...core.DBExecutor) ([]attendance.Attendance, error) {
	return repo.filter(func(a attendance.Attendance) bool { return a.StudentPK == studentPK }), nil
}

func (repo *attendanceRepository) QueryAttendancesOnDate(_ context.Context, date time.Time, _ ...core.DBExecutor) ([]attendance.Attendance, error) {
	date = core.Date(date)
	return repo.filter(func(a attendance.Attendance) bool { return a.Date.Equal(date) }), nil
}

func (repo *attendanceRepository) SummarizeStudentAttendances(ctx context.Context, studentPK int64, _ ...core.DBExecutor) (attendance.Summary, error) {
	atts, _ := repo.QueryStudentAttendances(ctx, studentPK)
	sum := attendance.Summary{Total: len(atts)}
	for _, a := range atts {
		if a.IsPresent {
			sum.Present++
		}
	}
	return sum, nil
}

func (repo *attendanceRepository) CountAttendances(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.attendances), nil
}

func (repo *attendanceRepository) CountAttendancesOnDate(ctx context.Context, date time.Time, _ ...core.DBExecutor) (int, error) {
	atts, _ := repo.QueryAttendancesOnDate(ctx, date)
	return len(atts), nil
}
