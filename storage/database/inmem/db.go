// Package inmem implements the domain repositories in memory, honouring the constraints of the SQL schema:
// unique student_id/email_id, unique (student, date) attendance, cascading student deletes.
package inmem

import (
	"sync"

	"github.com/trezcool/registrar/core/attendance"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
)

// DB is the shared store of the in-memory repositories.
type DB struct {
	mu sync.RWMutex

	students     map[int64]student.Student
	attendances  map[int64]attendance.Attendance
	performances map[int64]performance.Performance
	users        map[string]staff.User

	studentSeq     int64
	attendanceSeq  int64
	performanceSeq int64
}

func NewDB() *DB {
	return &DB{
		students:     make(map[int64]student.Student),
		attendances:  make(map[int64]attendance.Attendance),
		performances: make(map[int64]performance.Performance),
		users:        make(map[string]staff.User),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.students = make(map[int64]student.Student)
	db.attendances = make(map[int64]attendance.Attendance)
	db.performances = make(map[int64]performance.Performance)
	db.users = make(map[string]staff.User)
}
