package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/performance"
)

const performanceTable = "performance"

var performanceColumns = []string{
	"p.id", "p.student_pk", "p.subject", "p.marks_obtained", "p.total_marks", "p.exam_date",
	"p.created_at", "p.updated_at", "s.first_name || ' ' || s.last_name AS student_name",
}

type performanceRepository struct {
	baseRepository
}

var _ performance.Repository = (*performanceRepository)(nil) // interface compliance check

func NewPerformanceRepository(db core.DB) *performanceRepository {
	return &performanceRepository{baseRepository{db: db}}
}

// trapNoRowsErr maps psql "no rows" err to performance.ErrNotFound
func (repo performanceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return performance.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo performanceRepository) selectBuilder() sq.SelectBuilder {
	return psql.Select(performanceColumns...).
		From(performanceTable + " p").
		Join(studentTable + " s ON s.id = p.student_pk")
}

func (repo performanceRepository) values(perf performance.Performance) map[string]interface{} {
	return map[string]interface{}{
		"student_pk":     perf.StudentPK,
		"subject":        perf.Subject,
		"marks_obtained": perf.MarksObtained,
		"total_marks":    perf.TotalMarks,
		"exam_date":      core.Date(perf.ExamDate),
		"updated_at":     perf.UpdatedAt.UTC(),
	}
}

func (repo performanceRepository) CreatePerformance(ctx context.Context, perf performance.Performance, exec ...core.DBExecutor) (performance.Performance, error) {
	values := repo.values(perf)
	values["created_at"] = perf.CreatedAt.UTC()

	var id int64
	exe := repo.getExec(exec)
	if err := repo.get(ctx, exe, &id, psql.Insert(performanceTable).SetMap(values).Suffix("RETURNING id")); err != nil {
		if isForeignKeyViolation(err) {
			return performance.Performance{}, performance.ErrUnknownStudent
		}
		return performance.Performance{}, errors.Wrap(err, "inserting performance")
	}
	return repo.GetPerformance(ctx, id, exe)
}

func (repo performanceRepository) GetPerformance(ctx context.Context, id int64, exec ...core.DBExecutor) (performance.Performance, error) {
	var perf performance.Performance
	if err := repo.get(ctx, repo.getExec(exec), &perf, repo.selectBuilder().Where(sq.Eq{"p.id": id})); err != nil {
		return performance.Performance{}, repo.trapNoRowsErr(err, "finding performance")
	}
	return perf, nil
}

func (repo performanceRepository) QueryPerformances(ctx context.Context, studentPK int64, exec ...core.DBExecutor) ([]performance.Performance, error) {
	b := repo.selectBuilder().OrderBy("p.exam_date DESC", "p.id DESC")
	if studentPK != 0 {
		b = b.Where(sq.Eq{"p.student_pk": studentPK})
	}

	perfs := make([]performance.Performance, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &perfs, b); err != nil {
		return nil, errors.Wrap(err, "querying performances")
	}
	return perfs, nil
}

func (repo performanceRepository) UpdatePerformance(ctx context.Context, perf performance.Performance, exec ...core.DBExecutor) (performance.Performance, error) {
	exe := repo.getExec(exec)
	cnt, err := repo.exec(ctx, exe, psql.
		Update(performanceTable).
		SetMap(repo.values(perf)).
		Where(sq.Eq{"id": perf.ID}))
	if err != nil {
		if isForeignKeyViolation(err) {
			return performance.Performance{}, performance.ErrUnknownStudent
		}
		return performance.Performance{}, errors.Wrap(err, "updating performance")
	}
	if cnt == 0 {
		return performance.Performance{}, performance.ErrNotFound
	}
	return repo.GetPerformance(ctx, perf.ID, exe)
}

func (repo performanceRepository) CountPerformances(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := repo.get(ctx, repo.getExec(exec), &cnt, psql.Select("COUNT(*)").From(performanceTable)); err != nil {
		return 0, errors.Wrap(err, "counting performances")
	}
	return cnt, nil
}
