package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/student"
	"github.com/trezcool/registrar/tests"
)

func performanceOf(studentPK int64, subject string, marks, total int) performance.Performance {
	now := time.Now().UTC()
	return performance.Performance{
		StudentPK:     studentPK,
		Subject:       subject,
		MarksObtained: marks,
		TotalMarks:    total,
		ExamDate:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func performanceForm(studentPK int64, subject, marks, total, date string) url.Values {
	return url.Values{
		"student":        {fmt.Sprint(studentPK)},
		"subject":        {subject},
		"marks_obtained": {marks},
		"total_marks":    {total},
		"exam_date":      {date},
	}
}

func Test_performanceHandler_manage(t *testing.T) {
	app := setup(t)

	std := testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)
	_, err := perfRepo.CreatePerformance(context.Background(), performanceOf(std.ID, "Networks", 72, 100))
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, fmt.Sprintf("/performance?student=%d", std.ID), nil)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantBody: []string{
			"Networks", "72.00%", performance.RemarkAverage, std.FullName(),
			fmt.Sprintf(`<option value="%d" selected>`, std.ID),
			`name="total_marks" min="0" value="100"`,
		},
	}, rec)
}

func Test_performanceHandler_create(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	std := testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)

	tests := []httpTest{
		{
			name:     "marks above total",
			form:     performanceForm(std.ID, "Networks", "120", "100", "2024-03-10"),
			wantCode: http.StatusOK,
			wantBody: []string{"marks obtained cannot exceed total marks"},
			extra:    0,
		},
		{
			name:     "unknown student",
			form:     performanceForm(999, "Networks", "60", "100", "2024-03-10"),
			wantCode: http.StatusOK,
			wantBody: []string{"select a valid student"},
			extra:    0,
		},
		{
			name:     "missing fields",
			form:     performanceForm(std.ID, " ", "60", "100", ""),
			wantCode: http.StatusOK,
			wantBody: []string{"this field is required"},
			extra:    0,
		},
		{
			name:         "valid",
			form:         performanceForm(std.ID, "Networks", "60", "80", "2024-03-10"),
			wantCode:     http.StatusFound,
			wantLocation: "/performance",
			extra:        1,
		},
		{
			name:         "default total marks",
			form:         performanceForm(std.ID, "Databases", "90", "", "2024-03-12"),
			wantCode:     http.StatusFound,
			wantLocation: "/performance",
			extra:        2,
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/performance/", tt.form)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			count, err := perfRepo.CountPerformances(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.extra, count)
		})
	}

	perfs, err := perfRepo.QueryPerformances(ctx, std.ID)
	require.NoError(t, err)
	require.Len(t, perfs, 2)
	totals := map[string]int{}
	for _, p := range perfs {
		totals[p.Subject] = p.TotalMarks
	}
	assert.Equal(t, map[string]int{"Networks": 80, "Databases": performance.DefaultTotalMarks}, totals)
}

func Test_performanceHandler_edit(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	std := testutil.CreateStudent(t, stdRepo, "Alice", "Shah", student.ProgramMCA, 2024)
	perf, err := perfRepo.CreatePerformance(ctx, performanceOf(std.ID, "Networks", 72, 100))
	require.NoError(t, err)
	path := fmt.Sprintf("/performance/%d/edit", perf.ID)

	t.Run("form", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path, nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantBody: []string{`value="Networks"`, `value="72"`}}, rec)
	})

	t.Run("unknown", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/performance/999/edit", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound}, rec)
	})

	t.Run("valid", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path, performanceForm(std.ID, "Computer Networks", "81", "100", "2024-03-11"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusFound, wantLocation: fmt.Sprintf("/%d", std.ID)}, rec)

		got, err := perfRepo.GetPerformance(ctx, perf.ID)
		require.NoError(t, err)
		assert.Equal(t, "Computer Networks", got.Subject)
		assert.Equal(t, 81, got.MarksObtained)
		assert.Equal(t, "2024-03-11", got.ExamDate.Format("2006-01-02"))
	})
}
