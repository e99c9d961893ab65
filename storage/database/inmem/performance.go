package inmem

import (
	"context"
	"sort"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/performance"
)

type performanceRepository struct {
	db *DB
}

var _ performance.Repository = (*performanceRepository)(nil) // interface compliance check

func NewPerformanceRepository(db *DB) *performanceRepository {
	return &performanceRepository{db: db}
}

// withStudentName fills the joined student name; callers hold the lock.
func (repo *performanceRepository) withStudentName(perf performance.Performance) performance.Performance {
	perf.StudentName = repo.db.students[perf.StudentPK].FullName()
	return perf
}

func (repo *performanceRepository) CreatePerformance(_ context.Context, perf performance.Performance, _ ...core.DBExecutor) (performance.Performance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[perf.StudentPK]; !ok {
		return performance.Performance{}, performance.ErrUnknownStudent
	}
	perf.ExamDate = core.Date(perf.ExamDate)
	repo.db.performanceSeq++
	perf.ID = repo.db.performanceSeq
	perf.StudentName = ""
	repo.db.performances[perf.ID] = perf
	return repo.withStudentName(perf), nil
}

func (repo *performanceRepository) GetPerformance(_ context.Context, id int64, _ ...core.DBExecutor) (performance.Performance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	perf, ok := repo.db.performances[id]
	if !ok {
		return performance.Performance{}, performance.ErrNotFound
	}
	return repo.withStudentName(perf), nil
}

func (repo *performanceRepository) QueryPerformances(_ context.Context, studentPK int64, _ ...core.DBExecutor) ([]performance.Performance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	perfs := make([]performance.Performance, 0)
	for _, perf := range repo.db.performances {
		if studentPK == 0 || perf.StudentPK == studentPK {
			perfs = append(perfs, repo.withStudentName(perf))
		}
	}
	sort.Slice(perfs, func(i, j int) bool {
		if perfs[i].ExamDate.Equal(perfs[j].ExamDate) {
			return perfs[i].ID > perfs[j].ID
		}
		return perfs[i].ExamDate.After(perfs[j].ExamDate)
	})
	return perfs, nil
}

func (repo *performanceRepository) UpdatePerformance(_ context.Context, perf performance.Performance, _ ...core.DBExecutor) (performance.Performance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.performances[perf.ID]
	if !ok {
		return performance.Performance{}, performance.ErrNotFound
	}
	if _, ok := repo.db.students[perf.StudentPK]; !ok {
		return performance.Performance{}, performance.ErrUnknownStudent
	}
	perf.ExamDate = core.Date(perf.ExamDate)
	perf.CreatedAt = orig.CreatedAt
	perf.StudentName = ""
	repo.db.performances[perf.ID] = perf
	return repo.withStudentName(perf), nil
}

func (repo *performanceRepository) CountPerformances(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.performances), nil
}
