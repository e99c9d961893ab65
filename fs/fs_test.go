package appfs

import (
	"io/fs"
	"testing"
)

func TestFS(t *testing.T) {
	files := []string{
		"migrations/00001_create_staff_user.sql",
		"migrations/00003_create_attendance_performance.sql",
		"templates/pages/_layout.gohtml",
		"templates/pages/_performance_fields.gohtml",
		"templates/pages/student_list.gohtml",
		"templates/email/_base.gohtml",
		"templates/email/_base.txt",
		"templates/email/admission.txt",
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			if _, err := fs.Stat(FS, name); err != nil {
				t.Errorf("fs.Stat(%q) error = %v", name, err)
			}
		})
	}
}
