package domain

type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
	GradeD QualityGrade = "D"
	GradeF QualityGrade = "F"
)

const (
	MinQualityScore = 0
	MaxQualityScore = 100
)

// GradeBand is the inclusive lower bound of a grade.
type GradeBand struct {
	Grade    QualityGrade `json:"grade"`
	MinScore int          `json:"min_score"`
}

// gradeBands is evaluated top-down; scores below the last band fail.
var gradeBands = [...]GradeBand{
	{Grade: GradeA, MinScore: 90},
	{Grade: GradeB, MinScore: 75},
	{Grade: GradeC, MinScore: 60},
	{Grade: GradeD, MinScore: 40},
}

// SuccessScoreThreshold is the lowest score aggregate reporting counts as a
// successful extraction. It is the B band floor.
var SuccessScoreThreshold = MinScoreFor(GradeB)

func GradeBands() []GradeBand {
	out := make([]GradeBand, len(gradeBands))
	copy(out, gradeBands[:])
	return out
}

// Grades lists every grade from best to worst.
func Grades() []QualityGrade {
	out := make([]QualityGrade, 0, len(gradeBands)+1)
	for _, band := range gradeBands {
		out = append(out, band.Grade)
	}
	return append(out, GradeF)
}

func GradeFor(score int) QualityGrade {
	for _, band := range gradeBands {
		if score >= band.MinScore {
			return band.Grade
		}
	}
	return GradeF
}

// MinScoreFor returns the inclusive floor of a grade; F has floor 0.
func MinScoreFor(grade QualityGrade) int {
	for _, band := range gradeBands {
		if band.Grade == grade {
			return band.MinScore
		}
	}
	return MinQualityScore
}

func IsSuccessfulScore(score int) bool {
	return score >= SuccessScoreThreshold
}
