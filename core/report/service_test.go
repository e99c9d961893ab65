package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/report"
	"github.com/trezcool/registrar/core/student"
	"github.com/trezcool/registrar/storage/database/inmem"
	"github.com/trezcool/registrar/tests"
)

func setup() (report.Service, student.Repository, attendance.Service, performance.Service) {
	db := inmem.NewDB()
	stdRepo := inmem.NewStudentRepository(db)
	stdSvc := student.NewService(core.NewTestConfig(), stdRepo, nil)
	attSvc := attendance.NewService(inmem.NewAttendanceRepository(db))
	perfSvc := performance.NewService(inmem.NewPerformanceRepository(db))
	return report.NewService(core.NewTestConfig(), stdSvc, attSvc, perfSvc), stdRepo, attSvc, perfSvc
}

func TestService_StudentReport(t *testing.T) {
	svc, stdRepo, attSvc, perfSvc := setup()
	ctx := context.Background()

	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)
	bob := testutil.CreateStudent(t, stdRepo, "Bob", "Patel", student.ProgramMCA, 2024)
	carol := testutil.CreateStudent(t, stdRepo, "Carol", "Desai", student.ProgramMCA, 2024)

	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, alicePresent := range []bool{true, true, true, false} {
		require.NoError(t, attSvc.MarkBatch(ctx, day.AddDate(0, 0, i), []attendance.Mark{
			{StudentPK: alice.ID, IsPresent: alicePresent},
			{StudentPK: bob.ID, IsPresent: i == 0},
		}))
	}
	_, err := perfSvc.Create(ctx, performance.Info{StudentPK: alice.ID, Subject: "Networks", MarksObtained: 72, TotalMarks: 80, ExamDate: "2024-07-10"})
	require.NoError(t, err)

	tests := []struct {
		name            string
		pk              int64
		wantAttendance  attendance.Summary
		wantPerformance performance.Summary
		wantWarning     bool
	}{
		{
			name:            "at threshold",
			pk:              alice.ID,
			wantAttendance:  attendance.Summary{Total: 4, Present: 3},
			wantPerformance: performance.Summary{Count: 1, AverageMarks: 72, Good: 1},
		},
		{
			name:           "below threshold",
			pk:             bob.ID,
			wantAttendance: attendance.Summary{Total: 4, Present: 1},
			wantWarning:    true,
		},
		{
			name:        "no record",
			pk:          carol.ID,
			wantWarning: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := svc.StudentReport(ctx, tt.pk)
			require.NoError(t, err)
			assert.Equal(t, tt.pk, rep.Student.ID)
			assert.Equal(t, tt.wantAttendance, rep.Attendance)
			assert.Len(t, rep.Attendances, tt.wantAttendance.Total)
			assert.Equal(t, tt.wantPerformance, rep.Performance)
			assert.Len(t, rep.Performances, tt.wantPerformance.Count)
			assert.Equal(t, tt.wantWarning, rep.AttendanceWarning)
		})
	}

	_, err = svc.StudentReport(ctx, 404)
	assert.Equal(t, student.ErrNotFound, err)
}

func TestService_Dashboard(t *testing.T) {
	svc, stdRepo, attSvc, perfSvc := setup()
	ctx := context.Background()

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, dash.TotalStudents)
	assert.Empty(t, dash.RecentStudents)

	var students []student.Student
	for i, program := range []student.Program{
		student.ProgramMCA, student.ProgramMCA, student.ProgramBCA,
		student.ProgramMScIT, student.ProgramBCA, student.ProgramMCA,
	} {
		std := testutil.CreateStudent(t, stdRepo, "Student", string(rune('A'+i)), program, 2024)
		students = append(students, std)
	}

	today := time.Now()
	require.NoError(t, attSvc.MarkBatch(ctx, today, []attendance.Mark{
		{StudentPK: students[0].ID, IsPresent: true},
		{StudentPK: students[1].ID, IsPresent: false},
	}))
	require.NoError(t, attSvc.MarkBatch(ctx, today.AddDate(0, 0, -1), []attendance.Mark{
		{StudentPK: students[0].ID, IsPresent: true},
	}))
	_, err = perfSvc.Create(ctx, performance.Info{StudentPK: students[2].ID, Subject: "Maths", MarksObtained: 30, TotalMarks: 50, ExamDate: "2024-07-10"})
	require.NoError(t, err)

	dash, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, dash.TotalStudents)
	assert.Equal(t, 2, dash.TotalAttendanceToday)
	assert.Equal(t, 3, dash.TotalAttendanceRecords)
	assert.Equal(t, 1, dash.TotalPerformanceRecords)
	assert.Equal(t, []student.ProgramCount{
		{Program: student.ProgramBCA, Count: 2},
		{Program: student.ProgramMCA, Count: 3},
		{Program: student.ProgramMScIT, Count: 1},
	}, dash.ProgramStats)
	if assert.Len(t, dash.RecentStudents, 5) {
		assert.Equal(t, students[5].ID, dash.RecentStudents[0].ID)
	}
}
