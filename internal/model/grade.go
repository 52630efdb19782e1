package model

// Grade is the letter grade derived from a total score.
type Grade string

// Grades from best to worst.
const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// gradeThresholds are inclusive lower bounds, best first.
var gradeThresholds = []struct {
	min   int
	grade Grade
}{
	{95, GradeAPlus},
	{80, GradeA},
	{60, GradeB},
	{40, GradeC},
	{20, GradeD},
}

// GradeFor maps a total score to its grade.
func GradeFor(score int) Grade {
	for _, t := range gradeThresholds {
		if score >= t.min {
			return t.grade
		}
	}
	return GradeF
}

// String returns the grade letter.
func (g Grade) String() string {
	return string(g)
}
