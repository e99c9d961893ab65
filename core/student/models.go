package student

import (
	"fmt"
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/registrar/core"
)

type Program string

const (
	ProgramMCA   Program = "MCA"
	ProgramMScIT Program = "MScIT"
	ProgramBCA   Program = "BCA"
	ProgramPGDCA Program = "PGDCA"

	DefaultCountry = "India"
)

type Choice struct {
	Value string
	Label string
}

var (
	Programs = []Choice{
		{Value: string(ProgramMCA), Label: "Master of Computer Applications"},
		{Value: string(ProgramMScIT), Label: "Master of Science in Information Technology"},
		{Value: string(ProgramBCA), Label: "Bachelor of Computer Applications"},
		{Value: string(ProgramPGDCA), Label: "Post Graduate Diploma in Computer Applications"},
	}
	Genders = []Choice{
		{Value: "M", Label: "Male"},
		{Value: "F", Label: "Female"},
		{Value: "O", Label: "Other"},
	}
	BloodGroups = []Choice{
		{Value: "A+", Label: "A+"}, {Value: "A-", Label: "A-"},
		{Value: "B+", Label: "B+"}, {Value: "B-", Label: "B-"},
		{Value: "AB+", Label: "AB+"}, {Value: "AB-", Label: "AB-"},
		{Value: "O+", Label: "O+"}, {Value: "O-", Label: "O-"},
	}
	Semesters = []int{1, 2, 3, 4, 5, 6}
)

func choiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func isChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// DisplayName returns the full name of the program.
func (p Program) DisplayName() string {
	return choiceLabel(Programs, string(p))
}

func (p Program) Valid() bool {
	return isChoice(Programs, string(p))
}

type Student struct {
	ID                       int64       `db:"id"`
	FirstName                string      `db:"first_name"`
	LastName                 string      `db:"last_name"`
	DateOfBirth              time.Time   `db:"date_of_birth"`
	Gender                   string      `db:"gender"`
	PhoneNumber              string      `db:"phone_number"`
	PersonalEmail            string      `db:"personal_email"`
	Address                  string      `db:"address"`
	City                     string      `db:"city"`
	State                    string      `db:"state"`
	PostalCode               string      `db:"postal_code"`
	Country                  string      `db:"country"`
	Program                  Program     `db:"program"`
	Semester                 int         `db:"semester"`
	BloodGroup               null.String `db:"blood_group"`
	EmergencyContactName     string      `db:"emergency_contact_name"`
	EmergencyContactRelation string      `db:"emergency_contact_relation"`
	EmergencyContactPhone    string      `db:"emergency_contact_phone"`

	// system generated, assigned once at creation
	StudentID     string `db:"student_id"`
	EmailID       string `db:"email_id"`
	AdmissionYear int    `db:"admission_year"`

	CreatedAt time.Time `db:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s Student) String() string {
	return fmt.Sprintf("%s (%s)", s.FullName(), s.StudentID)
}

func (s Student) GenderDisplay() string {
	return choiceLabel(Genders, s.Gender)
}

// BatchCode returns the code of the cohort the student belongs to: <program><admission year>.
func (s Student) BatchCode() string {
	return string(s.Program) + strconv.Itoa(s.AdmissionYear)
}

// Info contains the editable information of a Student, used both to create and to fully update one.
type Info struct {
	FirstName                string `form:"first_name" validate:"required,notblank,max=50"`
	LastName                 string `form:"last_name" validate:"required,notblank,max=50"`
	DateOfBirth              string `form:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender                   string `form:"gender" validate:"required,gender"`
	PhoneNumber              string `form:"phone_number" validate:"required,phone"`
	PersonalEmail            string `form:"personal_email" validate:"required,email,max=100"`
	Address                  string `form:"address" validate:"required,notblank"`
	City                     string `form:"city" validate:"required,max=50"`
	State                    string `form:"state" validate:"required,max=50"`
	PostalCode               string `form:"postal_code" validate:"required,max=10"`
	Country                  string `form:"country" validate:"required,max=50"`
	Program                  string `form:"program" validate:"required,program"`
	Semester                 int    `form:"semester" validate:"required,min=1,max=6"`
	BloodGroup               string `form:"blood_group" validate:"omitempty,bloodgroup"`
	EmergencyContactName     string `form:"emergency_contact_name" validate:"required,notblank,max=100"`
	EmergencyContactRelation string `form:"emergency_contact_relation" validate:"required,max=50"`
	EmergencyContactPhone    string `form:"emergency_contact_phone" validate:"required,phone"`
}

// InfoFromStudent returns the editable information of s, as submitted through forms.
func InfoFromStudent(s Student) Info {
	return Info{
		FirstName:                s.FirstName,
		LastName:                 s.LastName,
		DateOfBirth:              s.DateOfBirth.Format(core.DateLayout),
		Gender:                   s.Gender,
		PhoneNumber:              s.PhoneNumber,
		PersonalEmail:            s.PersonalEmail,
		Address:                  s.Address,
		City:                     s.City,
		State:                    s.State,
		PostalCode:               s.PostalCode,
		Country:                  s.Country,
		Program:                  string(s.Program),
		Semester:                 s.Semester,
		BloodGroup:               s.BloodGroup.String,
		EmergencyContactName:     s.EmergencyContactName,
		EmergencyContactRelation: s.EmergencyContactRelation,
		EmergencyContactPhone:    s.EmergencyContactPhone,
	}
}

func (si *Info) clean() {
	si.FirstName = core.CleanString(si.FirstName)
	si.LastName = core.CleanString(si.LastName)
	si.DateOfBirth = core.CleanString(si.DateOfBirth)
	si.Gender = core.CleanString(si.Gender)
	si.PhoneNumber = core.CleanString(si.PhoneNumber)
	si.PersonalEmail = core.CleanString(si.PersonalEmail, true /* lower */)
	si.Address = core.CleanString(si.Address)
	si.City = core.CleanString(si.City)
	si.State = core.CleanString(si.State)
	si.PostalCode = core.CleanString(si.PostalCode)
	si.Country = core.CleanString(si.Country)
	if si.Country == "" {
		si.Country = DefaultCountry
	}
	si.Program = core.CleanString(si.Program)
	si.BloodGroup = core.CleanString(si.BloodGroup)
	si.EmergencyContactName = core.CleanString(si.EmergencyContactName)
	si.EmergencyContactRelation = core.CleanString(si.EmergencyContactRelation)
	si.EmergencyContactPhone = core.CleanString(si.EmergencyContactPhone)
}

// apply copies the editable information onto s.
func (si Info) apply(s *Student) {
	dob, _ := core.ParseDate(si.DateOfBirth) // validated
	s.FirstName = si.FirstName
	s.LastName = si.LastName
	s.DateOfBirth = dob
	s.Gender = si.Gender
	s.PhoneNumber = si.PhoneNumber
	s.PersonalEmail = si.PersonalEmail
	s.Address = si.Address
	s.City = si.City
	s.State = si.State
	s.PostalCode = si.PostalCode
	s.Country = si.Country
	s.Program = Program(si.Program)
	s.Semester = si.Semester
	s.BloodGroup = null.NewString(si.BloodGroup, si.BloodGroup != "")
	s.EmergencyContactName = si.EmergencyContactName
	s.EmergencyContactRelation = si.EmergencyContactRelation
	s.EmergencyContactPhone = si.EmergencyContactPhone
}

type QueryFilter struct {
	Search        string `query:"search"`
	Program       string `query:"program"`
	Semester      int    `query:"semester"`
	AdmissionYear int    `query:"year"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Program == "" && qf.Semester == 0 && qf.AdmissionYear == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program)
}

// Batch is the cohort of students sharing a program and an admission year.
type Batch struct {
	Program Program `db:"program"`
	Year    int     `db:"admission_year"`
	Count   int     `db:"count"`
}

func (b Batch) Code() string {
	return string(b.Program) + strconv.Itoa(b.Year)
}

func (b Batch) Name() string {
	return fmt.Sprintf("%s %d", b.Program.DisplayName(), b.Year)
}

// ParseBatchCode splits a batch code (e.g. "MCA2024") into its program and admission year.
func ParseBatchCode(code string) (Program, int, bool) {
	code = core.CleanString(code)
	if len(code) <= 4 {
		return "", 0, false
	}
	year, err := strconv.Atoi(code[len(code)-4:])
	if err != nil {
		return "", 0, false
	}
	program := Program(code[:len(code)-4])
	if !program.Valid() {
		return "", 0, false
	}
	return program, year, true
}

type ProgramCount struct {
	Program Program `db:"program"`
	Count   int     `db:"count"`
}
