package performance

import (
	"time"

	"github.com/trezcool/registrar/core"
)

const (
	RemarkGood             = "Good"
	RemarkAverage          = "Average"
	RemarkNeedsImprovement = "Needs Improvement"

	DefaultTotalMarks = 100
)

type Performance struct {
	ID            int64     `db:"id"`
	StudentPK     int64     `db:"student_pk"`
	Subject       string    `db:"subject"`
	MarksObtained int       `db:"marks_obtained"`
	TotalMarks    int       `db:"total_marks"`
	ExamDate      time.Time `db:"exam_date"`
	CreatedAt     time.Time `db:"created_at"` // UTC
	UpdatedAt     time.Time `db:"updated_at"` // UTC

	// read only, joined from the student
	StudentName string `db:"student_name"`
}

// Percentage returns marks/total*100 rounded to 2 decimals, 0 when total marks is 0.
func (p Performance) Percentage() float64 {
	if p.TotalMarks <= 0 {
		return 0
	}
	return core.Round(core.Percentage(p.MarksObtained, p.TotalMarks), 2)
}

func (p Performance) Remark() string {
	return RemarkFor(p.Percentage())
}

// RemarkFor buckets a percentage: Good (>= 75), Average (>= 50), Needs Improvement otherwise.
func RemarkFor(percentage float64) string {
	switch {
	case percentage >= 75:
		return RemarkGood
	case percentage >= 50:
		return RemarkAverage
	default:
		return RemarkNeedsImprovement
	}
}

// Info contains the information needed to record or fully update a Performance.
type Info struct {
	StudentPK     int64  `form:"student" validate:"required,min=1"`
	Subject       string `form:"subject" validate:"required,notblank,max=100"`
	MarksObtained int    `form:"marks_obtained" validate:"min=0"`
	TotalMarks    int    `form:"total_marks" validate:"min=0"`
	ExamDate      string `form:"exam_date" validate:"required,datetime=2006-01-02"`
}

func InfoFromPerformance(p Performance) Info {
	return Info{
		StudentPK:     p.StudentPK,
		Subject:       p.Subject,
		MarksObtained: p.MarksObtained,
		TotalMarks:    p.TotalMarks,
		ExamDate:      p.ExamDate.Format(core.DateLayout),
	}
}

func (pi *Info) clean() {
	pi.Subject = core.CleanString(pi.Subject)
	pi.ExamDate = core.CleanString(pi.ExamDate)
}

func (pi Info) apply(p *Performance) {
	examDate, _ := core.ParseDate(pi.ExamDate) // validated
	p.StudentPK = pi.StudentPK
	p.Subject = pi.Subject
	p.MarksObtained = pi.MarksObtained
	p.TotalMarks = pi.TotalMarks
	p.ExamDate = examDate
}

// Summary aggregates the performance records of a student.
type Summary struct {
	Count            int
	AverageMarks     float64 // mean of marks obtained, rounded to 2 decimals
	Good             int
	Average          int
	NeedsImprovement int
}

// Summarize computes the Summary of the given records.
func Summarize(perfs []Performance) Summary {
	sum := Summary{Count: len(perfs)}
	if sum.Count == 0 {
		return sum
	}
	var total int
	for _, p := range perfs {
		total += p.MarksObtained
		switch p.Remark() {
		case RemarkGood:
			sum.Good++
		case RemarkAverage:
			sum.Average++
		default:
			sum.NeedsImprovement++
		}
	}
	sum.AverageMarks = core.Round(float64(total)/float64(sum.Count), 2)
	return sum
}
