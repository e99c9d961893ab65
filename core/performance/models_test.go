package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformance_Percentage(t *testing.T) {
	tests := []struct {
		name       string
		obtained   int
		total      int
		want       float64
		wantRemark string
	}{
		{name: "full marks", obtained: 100, total: 100, want: 100, wantRemark: RemarkGood},
		{name: "good boundary", obtained: 75, total: 100, want: 75, wantRemark: RemarkGood},
		{name: "just below good", obtained: 149, total: 200, want: 74.5, wantRemark: RemarkAverage},
		{name: "average boundary", obtained: 25, total: 50, want: 50, wantRemark: RemarkAverage},
		{name: "rounded", obtained: 2, total: 3, want: 66.67, wantRemark: RemarkAverage},
		{name: "needs improvement", obtained: 49, total: 100, want: 49, wantRemark: RemarkNeedsImprovement},
		{name: "zero total", obtained: 0, total: 0, want: 0, wantRemark: RemarkNeedsImprovement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Performance{MarksObtained: tt.obtained, TotalMarks: tt.total}
			assert.Equal(t, tt.want, p.Percentage())
			assert.Equal(t, tt.wantRemark, p.Remark())
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	perfs := []Performance{
		{MarksObtained: 80, TotalMarks: 100},
		{MarksObtained: 55, TotalMarks: 100},
		{MarksObtained: 20, TotalMarks: 50},
	}
	assert.Equal(t, Summary{
		Count:            3,
		AverageMarks:     51.67,
		Good:             1,
		Average:          1,
		NeedsImprovement: 1,
	}, Summarize(perfs))
}
