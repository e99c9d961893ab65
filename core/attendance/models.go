package attendance

import (
	"time"

	"github.com/trezcool/registrar/core"
)

type Attendance struct {
	ID        int64     `db:"id"`
	StudentPK int64     `db:"student_pk"`
	Date      time.Time `db:"date"`
	IsPresent bool      `db:"is_present"`
	CreatedAt time.Time `db:"created_at"` // UTC
}

func (a Attendance) Status() string {
	if a.IsPresent {
		return "Present"
	}
	return "Absent"
}

// Mark is the presence of one student on the date being marked.
type Mark struct {
	StudentPK int64
	IsPresent bool
}

// Summary aggregates the attendance records of a student.
type Summary struct {
	Total   int `db:"total"`
	Present int `db:"present"`
}

func (s Summary) Absent() int {
	return s.Total - s.Present
}

// Percentage returns present/total*100, 0 when no class has been recorded.
func (s Summary) Percentage() float64 {
	return core.Percentage(s.Present, s.Total)
}

// BelowThreshold reports whether the attendance percentage is lower than threshold.
func (s Summary) BelowThreshold(threshold float64) bool {
	return s.Percentage() < threshold
}
