package student

import (
	"context"
	"errors"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/registrar/core"
)

const maxCreateAttempts = 5

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("student not found")
	ErrDuplicateStudentID = errors.New("a student with this student_id or email_id already exists")
	ErrSequenceExhausted  = errors.New("no student_id left for this program and year")
)

type (
	// IDAssigner sets the system generated identifiers of s, given the highest student_id
	// already assigned to its (program, admission year) cohort.
	IDAssigner func(s *Student, lastID string) error

	Repository interface {
		// CreateStudent reads the cohort's highest student_id, calls assign and inserts s as one unit of work.
		// A uniqueness violation on student_id or email_id is reported as ErrDuplicateStudentID.
		CreateStudent(ctx context.Context, std Student, assign IDAssigner, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, id int64, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of the names, student_id or email_id.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		QueryRecentStudents(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Student, error)
		CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountStudentsByProgram(ctx context.Context, exec ...core.DBExecutor) ([]ProgramCount, error)
		// QueryBatches counts students per (program, admission_year), sorted by program then year.
		QueryBatches(ctx context.Context, exec ...core.DBExecutor) ([]Batch, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// DeleteStudent deletes a student along with its attendance and performance records.
		DeleteStudent(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, data Info) (Student, error)
		Update(ctx context.Context, id int64, data Info) (Student, error)
		Delete(ctx context.Context, id int64) error
		GetByID(ctx context.Context, id int64) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		QueryRecent(ctx context.Context, n int) ([]Student, error)
		Count(ctx context.Context) (int, error)
		CountByProgram(ctx context.Context) ([]ProgramCount, error)
		Batches(ctx context.Context) ([]Batch, error)
	}

	service struct {
		conf    *core.Config
		repo    Repository
		mailSvc core.EmailService
	}
)

var (
	defaultOrdering = []core.DBOrdering{{Field: "student_id"}}
	_               Service = (*service)(nil)
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) Service {
	return &service{conf: conf, repo: repo, mailSvc: mailSvc}
}

// Validate cleans si and validates it against the form rules.
func (si *Info) Validate(validate *validator.Validate, translator ut.Translator) error {
	si.clean()
	return core.TranslateValidationErrors(validate.Struct(si), translator)
}

func (svc *service) assignIDs(s *Student, lastID string) error {
	id, err := NextStudentID(s.Program, s.AdmissionYear, lastID)
	if err != nil {
		return err
	}
	s.StudentID = id
	s.EmailID = EmailID(id, svc.conf.Institution.EmailTag, svc.conf.Institution.EmailDomain)
	return nil
}

func (svc *service) Create(ctx context.Context, data Info) (Student, error) {
	now := NowFunc().UTC()
	std := Student{
		AdmissionYear: now.Year(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	data.apply(&std)

	var err error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		var created Student
		created, err = svc.repo.CreateStudent(ctx, std, svc.assignIDs)
		if err == nil {
			svc.sendAdmissionMail(created)
			return created, nil
		}
		if pkgerrors.Cause(err) != ErrDuplicateStudentID {
			break
		}
	}

	if pkgerrors.Cause(err) == ErrSequenceExhausted {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "program", Error: err.Error()})
	}
	return Student{}, pkgerrors.Wrap(err, "creating student")
}

func (svc *service) Update(ctx context.Context, id int64, data Info) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	data.apply(&std)
	std.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteStudent(ctx, id)
}

func (svc *service) GetByID(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter != nil {
		filter.Clean()
	}
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) QueryRecent(ctx context.Context, n int) ([]Student, error) {
	return svc.repo.QueryRecentStudents(ctx, n)
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx)
}

func (svc *service) CountByProgram(ctx context.Context) ([]ProgramCount, error) {
	return svc.repo.CountStudentsByProgram(ctx)
}

func (svc *service) Batches(ctx context.Context) ([]Batch, error) {
	return svc.repo.QueryBatches(ctx)
}

type admissionMailData struct {
	FullName      string
	ProgramName   string
	AdmissionYear int
	StudentID     string
	EmailID       string
}

func (svc *service) sendAdmissionMail(std Student) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: std.FullName(), Address: std.PersonalEmail}},
		Subject:      "Admission confirmed: " + std.StudentID,
		TemplateName: "admission",
		TemplateData: admissionMailData{
			FullName:      std.FullName(),
			ProgramName:   std.Program.DisplayName(),
			AdmissionYear: std.AdmissionYear,
			StudentID:     std.StudentID,
			EmailID:       std.EmailID,
		},
	})
}
