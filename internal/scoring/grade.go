package scoring

// Grade is a letter grade from the fixed grade set.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeC      Grade = "C"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// gradeBand maps an inclusive lower bound to a grade. Bands are scanned
// in descending order, first match wins; the table is contiguous over
// [0, 100] so the final band also serves as the floor for anything
// outside the expected range.
type gradeBand struct {
	min   float64
	grade Grade
}

var gradeTable = []gradeBand{
	{95, GradeAPlus},
	{90, GradeA},
	{85, GradeAMinus},
	{80, GradeBPlus},
	{70, GradeB},
	{55, GradeC},
	{40, GradeD},
	{0, GradeF},
}

// GradeFor maps a 0-100 score onto the grade table.
func GradeFor(score float64) Grade {
	for _, band := range gradeTable {
		if score >= band.min {
			return band.grade
		}
	}
	return GradeF
}

// Grades returns the fixed grade set in descending order.
func Grades() []Grade {
	out := make([]Grade, len(gradeTable))
	for i, band := range gradeTable {
		out[i] = band.grade
	}
	return out
}
