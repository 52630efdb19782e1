package scoring

import (
	"math"

	"github.com/nao1215/pagescope/internal/model"
)

// scale turns a raw metric into points.
type scale interface {
	points(value float64) int
}

// rung is one step of a ladder.
type rung struct {
	threshold float64
	points    int
}

// ladder awards the points of the first rung the value reaches, top-down.
// By default a rung is reached when value >= threshold; lowerIsBetter
// flips that to value <= threshold.
type ladder struct {
	rungs         []rung
	lowerIsBetter bool
}

func (l ladder) points(value float64) int {
	for _, r := range l.rungs {
		if l.lowerIsBetter && value <= r.threshold || !l.lowerIsBetter && value >= r.threshold {
			return r.points
		}
	}
	return 0
}

// atLeast builds a higher-is-better ladder from threshold, points pairs.
func atLeast(pairs ...float64) ladder {
	return ladder{rungs: rungsOf(pairs)}
}

// atMost builds a lower-is-better ladder from threshold, points pairs.
func atMost(pairs ...float64) ladder {
	return ladder{rungs: rungsOf(pairs), lowerIsBetter: true}
}

func rungsOf(pairs []float64) []rung {
	rungs := make([]rung, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rungs = append(rungs, rung{threshold: pairs[i], points: int(pairs[i+1])})
	}
	return rungs
}

// band is an inclusive range of values.
type band struct {
	low, high float64
	points    int
}

// bands awards the points of the first band containing the value.
type bands []band

func (b bands) points(value float64) int {
	for _, r := range b {
		if value >= r.low && value <= r.high {
			return r.points
		}
	}
	return 0
}

// passRule decides whether a check passed from its metric and earned points.
type passRule func(value float64, earned, maxPoints int) bool

func passAtMax(_ float64, earned, maxPoints int) bool {
	return earned == maxPoints
}

func passEarned(minimum int) passRule {
	return func(_ float64, earned, _ int) bool {
		return earned >= minimum
	}
}

func passValueAtLeast(minimum float64) passRule {
	return func(value float64, _, _ int) bool {
		return value >= minimum
	}
}

func passValueAtMost(maximum float64) passRule {
	return func(value float64, _, _ int) bool {
		return value <= maximum
	}
}

func passValueWithin(low, high float64) passRule {
	return func(value float64, _, _ int) bool {
		return value >= low && value <= high
	}
}

// rule is one row of a category table.
type rule struct {
	id        string
	name      string
	maxPoints int
	scale     scale
	pass      passRule
}

// evaluate scores value. Earned is clamped to [0, maxPoints].
func (r rule) evaluate(value float64, details string) model.ScoreCheck {
	earned := min(max(r.scale.points(value), 0), r.maxPoints)
	return model.ScoreCheck{
		ID:        r.id,
		Name:      r.name,
		MaxPoints: r.maxPoints,
		Earned:    earned,
		Passed:    r.pass(value, earned, r.maxPoints),
		Details:   details,
	}
}

// missing scores a check whose metric could not be observed.
func (r rule) missing(details string) model.ScoreCheck {
	return model.ScoreCheck{
		ID:        r.id,
		Name:      r.name,
		MaxPoints: r.maxPoints,
		Details:   details,
	}
}

// present converts a boolean metric into 1 or 0.
func present(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

// anyPositive is the smallest threshold a strictly positive ratio reaches.
const anyPositive = math.SmallestNonzeroFloat64
