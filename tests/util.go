package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/registrar/core"
	"github.com/trezcool/registrar/core/performance"
	"github.com/trezcool/registrar/core/staff"
	"github.com/trezcool/registrar/core/student"
	logsvc "github.com/trezcool/registrar/services/logger"
)

// NewLogger returns a silent logger: nothing is printed nor reported.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator and its translator with every domain rule registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()

	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	performance.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)
	return validate, translator
}

// StudentInfo returns valid admission data for the given program.
func StudentInfo(first, last string, program student.Program) student.Info {
	return student.Info{
		FirstName:                first,
		LastName:                 last,
		DateOfBirth:              "2001-04-12",
		Gender:                   "M",
		PhoneNumber:              "+919876543210",
		PersonalEmail:            "student@example.com",
		Address:                  "12 Ashram Road",
		City:                     "Ahmedabad",
		State:                    "Gujarat",
		PostalCode:               "380014",
		Country:                  "India",
		Program:                  string(program),
		Semester:                 1,
		EmergencyContactName:     "Parent Name",
		EmergencyContactRelation: "Father",
		EmergencyContactPhone:    "+919812345678",
	}
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	first, last string,
	program student.Program,
	year int,
) student.Student {
	now := time.Now().UTC()
	std := student.Student{
		FirstName:                first,
		LastName:                 last,
		DateOfBirth:              time.Date(2001, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:                   "M",
		PhoneNumber:              "+919876543210",
		PersonalEmail:            "student@example.com",
		Address:                  "12 Ashram Road",
		City:                     "Ahmedabad",
		State:                    "Gujarat",
		PostalCode:               "380014",
		Country:                  "India",
		Program:                  program,
		Semester:                 1,
		BloodGroup:               null.StringFrom("O+"),
		EmergencyContactName:     "Parent Name",
		EmergencyContactRelation: "Father",
		EmergencyContactPhone:    "+919812345678",
		AdmissionYear:            year,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	std, err := repo.CreateStudent(context.Background(), std, func(s *student.Student, lastID string) error {
		id, err := student.NextStudentID(s.Program, s.AdmissionYear, lastID)
		if err != nil {
			return err
		}
		s.StudentID = id
		s.EmailID = student.EmailID(id, "gvp", "gujaratvidyapith.org")
		return nil
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func CreateStaff(t *testing.T, repo staff.Repository, uname, pwd string, isStaff, isActive bool) staff.User {
	now := time.Now().UTC()
	usr := staff.User{
		Username:  uname,
		Email:     uname + "@example.com",
		IsStaff:   isStaff,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createStaff() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createStaff() failed: %v", err)
	}
	return usr
}
