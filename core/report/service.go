// Package report aggregates students, attendance and performance records into per-student reports and
// the admin dashboard.
package report

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/student"
)

const recentStudentsCount = 5

type (
	StudentReport struct {
		Student           student.Student
		Attendances       []attendance.Attendance
		Attendance        attendance.Summary
		Performances      []performance.Performance
		Performance       performance.Summary
		AttendanceWarning bool // attendance percentage below the configured threshold
	}

	Dashboard struct {
		TotalStudents           int
		TotalAttendanceToday    int
		TotalAttendanceRecords  int
		TotalPerformanceRecords int
		RecentStudents          []student.Student
		ProgramStats            []student.ProgramCount
	}

	Service interface {
		StudentReport(ctx context.Context, studentPK int64) (StudentReport, error)
		Dashboard(ctx context.Context) (Dashboard, error)
	}

	service struct {
		conf    *core.Config
		stdSvc  student.Service
		attSvc  attendance.Service
		perfSvc performance.Service
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, stdSvc student.Service, attSvc attendance.Service, perfSvc performance.Service) Service {
	return &service{conf: conf, stdSvc: stdSvc, attSvc: attSvc, perfSvc: perfSvc}
}

func (svc *service) StudentReport(ctx context.Context, studentPK int64) (StudentReport, error) {
	std, err := svc.stdSvc.GetByID(ctx, studentPK)
	if err != nil {
		return StudentReport{}, err
	}
	rep := StudentReport{Student: std}

	if rep.Attendances, err = svc.attSvc.ForStudent(ctx, std.ID); err != nil {
		return StudentReport{}, errors.Wrap(err, "querying attendances")
	}
	if rep.Attendance, err = svc.attSvc.Summarize(ctx, std.ID); err != nil {
		return StudentReport{}, errors.Wrap(err, "summarizing attendances")
	}
	if rep.Performances, err = svc.perfSvc.ForStudent(ctx, std.ID); err != nil {
		return StudentReport{}, errors.Wrap(err, "querying performances")
	}
	rep.Performance = performance.Summarize(rep.Performances)
	rep.AttendanceWarning = rep.Attendance.BelowThreshold(svc.conf.Attendance.WarningThreshold)
	return rep, nil
}

func (svc *service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		dash Dashboard
		err  error
	)
	if dash.TotalStudents, err = svc.stdSvc.Count(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting students")
	}
	if dash.TotalAttendanceToday, err = svc.attSvc.CountToday(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting today's attendances")
	}
	if dash.TotalAttendanceRecords, err = svc.attSvc.Count(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting attendances")
	}
	if dash.TotalPerformanceRecords, err = svc.perfSvc.Count(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting performances")
	}
	if dash.RecentStudents, err = svc.stdSvc.QueryRecent(ctx, recentStudentsCount); err != nil {
		return Dashboard{}, errors.Wrap(err, "querying recent students")
	}
	if dash.ProgramStats, err = svc.stdSvc.CountByProgram(ctx); err != nil {
		return Dashboard{}, errors.Wrap(err, "counting students by program")
	}
	return dash, nil
}
