package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student, assign student.IDAssigner, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	first, last, err := student.IDBlock(std.Program, std.AdmissionYear)
	if err != nil {
		return student.Student{}, err
	}
	var lastID string
	for _, s := range repo.db.students {
		if s.StudentID >= first && s.StudentID <= last && s.StudentID > lastID {
			lastID = s.StudentID
		}
	}
	if err := assign(&std, lastID); err != nil {
		return student.Student{}, err
	}
	for _, s := range repo.db.students {
		if s.StudentID == std.StudentID || s.EmailID == std.EmailID {
			return student.Student{}, student.ErrDuplicateStudentID
		}
	}

	repo.db.studentSeq++
	std.ID = repo.db.studentSeq
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int64, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) matches(std student.Student, filter *student.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		found := false
		for _, val := range []string{std.FirstName, std.LastName, std.StudentID, std.EmailID} {
			if strings.Contains(strings.ToLower(val), search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Program != "" && string(std.Program) != filter.Program {
		return false
	}
	if filter.Semester != 0 && std.Semester != filter.Semester {
		return false
	}
	if filter.AdmissionYear != 0 && std.AdmissionYear != filter.AdmissionYear {
		return false
	}
	return true
}

// compareStudents returns -1, 0 or 1 comparing a and b on field.
func compareStudents(a, b student.Student, field string) int {
	cmpInt := func(x, y int) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch field {
	case "student_id":
		return strings.Compare(a.StudentID, b.StudentID)
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "program":
		return strings.Compare(string(a.Program), string(b.Program))
	case "semester":
		return cmpInt(a.Semester, b.Semester)
	case "admission_year":
		return cmpInt(a.AdmissionYear, b.AdmissionYear)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func sortStudents(students []student.Student, ordering []core.DBOrdering) {
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareStudents(students[i], students[j], strings.ToLower(ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return students[i].ID < students[j].ID
	})
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		if repo.matches(std, filter) {
			students = append(students, std)
		}
	}
	sortStudents(students, ordering)
	return students, nil
}

func (repo *studentRepository) QueryRecentStudents(_ context.Context, limit int, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		students = append(students, std)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].ID > students[j].ID
		}
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	if len(students) > limit {
		students = students[:limit]
	}
	return students, nil
}

func (repo *studentRepository) CountStudents(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.students), nil
}

func (repo *studentRepository) CountStudentsByProgram(_ context.Context, _ ...core.DBExecutor) ([]student.ProgramCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[student.Program]int)
	for _, std := range repo.db.students {
		counts[std.Program]++
	}
	stats := make([]student.ProgramCount, 0, len(counts))
	for program, cnt := range counts {
		stats = append(stats, student.ProgramCount{Program: program, Count: cnt})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Program < stats[j].Program })
	return stats, nil
}

func (repo *studentRepository) QueryBatches(_ context.Context, _ ...core.DBExecutor) ([]student.Batch, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	index := make(map[string]int)
	batches := make([]student.Batch, 0)
	for _, std := range repo.db.students {
		code := std.BatchCode()
		i, ok := index[code]
		if !ok {
			i = len(batches)
			index[code] = i
			batches = append(batches, student.Batch{Program: std.Program, Year: std.AdmissionYear})
		}
		batches[i].Count++
	}
	sort.Slice(batches, func(i, j int) bool {
		if batches[i].Program == batches[j].Program {
			return batches[i].Year < batches[j].Year
		}
		return batches[i].Program < batches[j].Program
	})
	return batches, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// system generated fields are immutable
	std.StudentID = orig.StudentID
	std.EmailID = orig.EmailID
	std.AdmissionYear = orig.AdmissionYear
	std.CreatedAt = orig.CreatedAt
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)

	// cascade
	for pk, a := range repo.db.attendances {
		if a.StudentPK == id {
			delete(repo.db.attendances, pk)
		}
	}
	for pk, p := range repo.db.performances {
		if p.StudentPK == id {
			delete(repo.db.performances, pk)
		}
	}
	return nil
}
