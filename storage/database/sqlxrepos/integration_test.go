//go:build integration
// +build integration

package sqlxrepos_test

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/student"
	"github.com/trezcool/registrar/storage/database"
	"github.com/trezcool/registrar/storage/database/sqlxrepos"
	"github.com/trezcool/registrar/tests"
)

// run with: REGISTRAR_TEST_DATABASE_URL=postgres://... go test -tags integration ./storage/database/sqlxrepos/
func setupDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("REGISTRAR_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("REGISTRAR_TEST_DATABASE_URL is not set")
	}
	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Ping(context.Background(), db))
	require.NoError(t, database.Migrate(db.DB, "reset"))
	require.NoError(t, database.Migrate(db.DB, "up"))
	return db
}

func TestStudentRepository_CreateStudent(t *testing.T) {
	db := setupDB(t)
	repo := sqlxrepos.NewStudentRepository(db)
	ctx := context.Background()

	student.NowFunc = func() time.Time { return time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { student.NowFunc = time.Now })
	svc := student.NewService(core.NewTestConfig(), repo, nil)

	alice := testutil.CreateStudent(t, repo, "Alice", "Shah", student.ProgramMCA, 2024)
	bob := testutil.CreateStudent(t, repo, "Bob", "Patel", student.ProgramMCA, 2024)
	assert.Equal(t, "24102", alice.StudentID)
	assert.Equal(t, "24103", bob.StudentID)

	t.Run("duplicate id", func(t *testing.T) {
		_, err := repo.CreateStudent(ctx, student.Student{Program: student.ProgramMCA, AdmissionYear: 2024},
			func(s *student.Student, _ string) error {
				s.StudentID = alice.StudentID
				s.EmailID = "other@example.com"
				return nil
			})
		assert.Equal(t, student.ErrDuplicateStudentID, err)
	})

	t.Run("concurrent creations", func(t *testing.T) {
		const n = 8
		ids := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				std, err := svc.Create(ctx, testutil.StudentInfo("Student", "Concurrent", student.ProgramMCA))
				ids[i], errs[i] = std.StudentID, err
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		sort.Strings(ids)
		assert.Equal(t, []string{"24104", "24105", "24106", "24107", "24108", "24109", "24110", "24111"}, ids)
	})

	t.Run("moved to another program", func(t *testing.T) {
		moved, err := svc.Create(ctx, testutil.StudentInfo("Carol", "Desai", student.ProgramBCA))
		require.NoError(t, err)
		require.Equal(t, "24302", moved.StudentID)

		moved.Program = student.ProgramMCA
		_, err = repo.UpdateStudent(ctx, moved)
		require.NoError(t, err)

		std, err := svc.Create(ctx, testutil.StudentInfo("Dev", "Joshi", student.ProgramMCA))
		require.NoError(t, err)
		assert.Equal(t, "24112", std.StudentID)
		std, err = svc.Create(ctx, testutil.StudentInfo("Esha", "Rao", student.ProgramBCA))
		require.NoError(t, err)
		assert.Equal(t, "24303", std.StudentID)
	})
}

func TestAttendanceRepository(t *testing.T) {
	db := setupDB(t)
	stdRepo := sqlxrepos.NewStudentRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	perfRepo := sqlxrepos.NewPerformanceRepository(db)
	ctx := context.Background()

	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)
	bob := testutil.CreateStudent(t, stdRepo, "Bob", "Patel", student.ProgramMCA, 2024)
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("upsert", func(t *testing.T) {
		require.NoError(t, attRepo.UpsertAttendances(ctx, day, []attendance.Mark{
			{StudentPK: alice.ID, IsPresent: false},
			{StudentPK: bob.ID, IsPresent: true},
		}))
		require.NoError(t, attRepo.UpsertAttendances(ctx, day, []attendance.Mark{
			{StudentPK: alice.ID, IsPresent: true},
		}))

		count, err := attRepo.CountAttendancesOnDate(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		sum, err := attRepo.SummarizeStudentAttendances(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, attendance.Summary{Total: 1, Present: 1}, sum)
	})

	t.Run("unknown student rolls back the batch", func(t *testing.T) {
		next := day.AddDate(0, 0, 1)
		err := attRepo.UpsertAttendances(ctx, next, []attendance.Mark{
			{StudentPK: alice.ID, IsPresent: true},
			{StudentPK: 404, IsPresent: true},
		})
		assert.Error(t, err)

		count, err := attRepo.CountAttendancesOnDate(ctx, next)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("cascade delete", func(t *testing.T) {
		_, err := perfRepo.CreatePerformance(ctx, performance.Performance{
			StudentPK: bob.ID, Subject: "Networks", MarksObtained: 72, TotalMarks: 80,
			ExamDate: day, CreatedAt: day, UpdatedAt: day,
		})
		require.NoError(t, err)

		require.NoError(t, stdRepo.DeleteStudent(ctx, bob.ID))

		atts, err := attRepo.QueryStudentAttendances(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, atts)
		perfs, err := perfRepo.QueryPerformances(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, perfs)
	})

	t.Run("performance of unknown student", func(t *testing.T) {
		_, err := perfRepo.CreatePerformance(ctx, performance.Performance{StudentPK: 404, Subject: "Maths", TotalMarks: 100, ExamDate: day})
		assert.Equal(t, performance.ErrUnknownStudent, err)
	})
}
