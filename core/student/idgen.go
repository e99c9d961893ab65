package student

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// first suffix of each program block; a block holds base+1 .. base+blockSpan
var programBaseCodes = map[Program]int{
	ProgramMCA:   101,
	ProgramMScIT: 201,
	ProgramBCA:   301,
	ProgramPGDCA: 401,
}

const blockSpan = 99

// NextStudentID computes the student_id following lastID, the highest student_id already assigned inside
// the (program, year) block ("" when the block is empty). See IDBlock.
// The id is the 2-digit year followed by a 3-digit suffix; the first student of a cohort gets base+1.
func NextStudentID(program Program, year int, lastID string) (string, error) {
	base, ok := programBaseCodes[program]
	if !ok {
		return "", errors.Errorf("unknown program %q", program)
	}

	suffix := base + 1
	if lastID != "" {
		if len(lastID) < 3 {
			return "", errors.Errorf("malformed student_id %q", lastID)
		}
		last, err := strconv.Atoi(lastID[len(lastID)-3:])
		if err != nil {
			return "", errors.Wrapf(err, "parsing student_id %q", lastID)
		}
		if last+1 > suffix {
			suffix = last + 1
		}
	}
	if suffix > base+blockSpan {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("%02d%03d", year%100, suffix), nil
}

// IDBlock returns the first and last student_id of the (program, year) block.
// Ids are fixed width, so the block is also a lexical range.
func IDBlock(program Program, year int) (first, last string, err error) {
	base, ok := programBaseCodes[program]
	if !ok {
		return "", "", errors.Errorf("unknown program %q", program)
	}
	yy := year % 100
	return fmt.Sprintf("%02d%03d", yy, base+1), fmt.Sprintf("%02d%03d", yy, base+blockSpan), nil
}

// EmailID derives the institutional email of a student from its student_id.
func EmailID(studentID, tag, domain string) string {
	return fmt.Sprintf("%s.%s@%s", studentID, tag, domain)
}
