package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/student"
)

const studentTable = "student"

var (
	studentColumns = []string{
		"id", "first_name", "last_name", "date_of_birth", "gender", "phone_number", "personal_email",
		"address", "city", "state", "postal_code", "country", "program", "semester", "blood_group",
		"emergency_contact_name", "emergency_contact_relation", "emergency_contact_phone",
		"student_id", "email_id", "admission_year", "created_at", "updated_at",
	}
	studentSortable = map[string]bool{
		"student_id": true, "first_name": true, "last_name": true, "program": true,
		"semester": true, "admission_year": true, "created_at": true,
	}
)

type studentRepository struct {
	baseRepository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DB) *studentRepository {
	return &studentRepository{baseRepository{db: db}}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// editableValues returns the columns a full-record update may change.
func (repo studentRepository) editableValues(std student.Student) map[string]interface{} {
	return map[string]interface{}{
		"first_name":                 std.FirstName,
		"last_name":                  std.LastName,
		"date_of_birth":              std.DateOfBirth,
		"gender":                     std.Gender,
		"phone_number":               std.PhoneNumber,
		"personal_email":             std.PersonalEmail,
		"address":                    std.Address,
		"city":                       std.City,
		"state":                      std.State,
		"postal_code":                std.PostalCode,
		"country":                    std.Country,
		"program":                    string(std.Program),
		"semester":                   std.Semester,
		"blood_group":                std.BloodGroup,
		"emergency_contact_name":     std.EmergencyContactName,
		"emergency_contact_relation": std.EmergencyContactRelation,
		"emergency_contact_phone":    std.EmergencyContactPhone,
		"updated_at":                 std.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student, assign student.IDAssigner, exec ...core.DBExecutor) (student.Student, error) {
	err := repo.inTx(ctx, exec, func(tx core.DBExecutor) error {
		// serialize id assignment per cohort
		cohort := string(std.Program) + "/" + strconv.Itoa(std.AdmissionYear)
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", cohort); err != nil {
			return errors.Wrap(err, "locking cohort")
		}

		// the block, not the current program: staff may move a student to another program
		first, last, err := student.IDBlock(std.Program, std.AdmissionYear)
		if err != nil {
			return err
		}
		var lastID sql.NullString
		err = repo.get(ctx, tx, &lastID, psql.
			Select("MAX(student_id)").
			From(studentTable).
			Where(sq.And{sq.GtOrEq{"student_id": first}, sq.LtOrEq{"student_id": last}}))
		if err != nil {
			return errors.Wrap(err, "finding last student_id")
		}
		if err = assign(&std, lastID.String); err != nil {
			return err
		}

		values := repo.editableValues(std)
		values["student_id"] = std.StudentID
		values["email_id"] = std.EmailID
		values["admission_year"] = std.AdmissionYear
		values["created_at"] = std.CreatedAt.UTC()

		err = repo.get(ctx, tx, &std.ID, psql.Insert(studentTable).SetMap(values).Suffix("RETURNING id"))
		if err != nil {
			if isUniqueViolation(err) {
				return student.ErrDuplicateStudentID
			}
			return errors.Wrap(err, "inserting student")
		}
		return nil
	})
	if err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (student.Student, error) {
	var std student.Student
	err := repo.get(ctx, repo.getExec(exec), &std, psql.
		Select(studentColumns...).
		From(studentTable).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student")
	}
	return std, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	b := psql.Select(studentColumns...).From(studentTable)

	if filter != nil {
		// students with one of the names, student_id or email_id matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"first_name": val},
				sq.ILike{"last_name": val},
				sq.ILike{"student_id": val},
				sq.ILike{"email_id": val},
			})
		}
		if filter.Program != "" {
			b = b.Where(sq.Eq{"program": filter.Program})
		}
		if filter.Semester != 0 {
			b = b.Where(sq.Eq{"semester": filter.Semester})
		}
		if filter.AdmissionYear != 0 {
			b = b.Where(sq.Eq{"admission_year": filter.AdmissionYear})
		}
	}
	if clauses := orderBy(ordering, studentSortable); len(clauses) > 0 {
		b = b.OrderBy(clauses...)
	}

	students := make([]student.Student, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &students, b); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) QueryRecentStudents(ctx context.Context, limit int, exec ...core.DBExecutor) ([]student.Student, error) {
	b := psql.Select(studentColumns...).
		From(studentTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	students := make([]student.Student, 0, limit)
	if err := repo.selectAll(ctx, repo.getExec(exec), &students, b); err != nil {
		return nil, errors.Wrap(err, "querying recent students")
	}
	return students, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := repo.get(ctx, repo.getExec(exec), &cnt, psql.Select("COUNT(*)").From(studentTable)); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return cnt, nil
}

func (repo studentRepository) CountStudentsByProgram(ctx context.Context, exec ...core.DBExecutor) ([]student.ProgramCount, error) {
	b := psql.Select("program", "COUNT(*) AS count").
		From(studentTable).
		GroupBy("program").
		OrderBy("program")

	counts := make([]student.ProgramCount, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &counts, b); err != nil {
		return nil, errors.Wrap(err, "counting students by program")
	}
	return counts, nil
}

func (repo studentRepository) QueryBatches(ctx context.Context, exec ...core.DBExecutor) ([]student.Batch, error) {
	b := psql.Select("program", "admission_year", "COUNT(*) AS count").
		From(studentTable).
		GroupBy("program", "admission_year").
		OrderBy("program", "admission_year")

	batches := make([]student.Batch, 0)
	if err := repo.selectAll(ctx, repo.getExec(exec), &batches, b); err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}
	return batches, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	cnt, err := repo.exec(ctx, repo.getExec(exec), psql.
		Update(studentTable).
		SetMap(repo.editableValues(std)).
		Where(sq.Eq{"id": std.ID}))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if cnt == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	// attendance and performance rows are removed by ON DELETE CASCADE
	cnt, err := repo.exec(ctx, repo.getExec(exec), psql.Delete(studentTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if cnt == 0 {
		return student.ErrNotFound
	}
	return nil
}
