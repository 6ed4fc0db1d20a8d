/*
Package priority scores and ranks tasks. The score is an additive blend of six
independently clamped factors; user feedback shifts the result after the fact
through a bounded adjustment, so learned opinion can never drown out the
factors themselves.
*/
package priority

import (
	"fmt"
	"time"

	"github.com/tasktide/tasktide/models"
)

// Factor bounds. Every factor clamps to its own range before summing and the
// sum clamps to 0..100.
const (
	dueMin, dueMax         = 5.0, 40.0
	priorityMax            = 25.0
	ageMin, ageMax         = 2.0, 10.0
	quickWinMax            = 10.0
	quickWinUnknown        = 3.0
	timeFitMin, timeFitMax = 2.0, 10.0
	timeFitNeutral         = 5.0
	momentumBonus          = 5.0
	scoreMax               = 100.0
)

// Breakdown carries the factor-by-factor composition of a task's score along
// with human-readable reasons for the strongest contributions.
type Breakdown struct {
	Due      float64  `json:"due"`
	Priority float64  `json:"priority"`
	Age      float64  `json:"age"`
	QuickWin float64  `json:"quickWin"`
	TimeFit  float64  `json:"timeFit"`
	Momentum float64  `json:"momentum"`
	Total    float64  `json:"total"`
	Reasons  []string `json:"reasons,omitempty"`
}

// PatternReader is the slice of the pattern store scoring needs.
type PatternReader interface {
	LastCompletedCategory() string
	HourCount(category string, hour int) int
	PeakHourCount(category string) int
}

// Score computes the base score for a task at the given instant. The result
// is deterministic for fixed inputs.
func Score(t models.Task, now time.Time, patterns PatternReader) Breakdown {
	b := Breakdown{
		Due:      dueScore(t, now),
		Priority: priorityScore(t.Priority),
		Age:      ageScore(t, now),
		QuickWin: quickWinScore(t),
		TimeFit:  timeFitScore(t.EffectiveCategory(), now.Hour(), patterns),
		Momentum: momentumScore(t.EffectiveCategory(), patterns),
	}
	b.Total = clampRange(b.Due+b.Priority+b.Age+b.QuickWin+b.TimeFit+b.Momentum, 0, scoreMax)
	b.Reasons = reasons(t, now, b)
	return b
}

// dueScore rewards urgency: overdue tasks max out, and inside each approach
// band the score rises linearly as the due instant gets closer.
func dueScore(t models.Task, now time.Time) float64 {
	due := t.DueAt()
	if due == nil {
		return dueMin
	}
	until := due.Sub(now)
	switch {
	case until <= 0:
		return dueMax
	case until < 2*time.Hour:
		return 38
	case until < 24*time.Hour:
		return interpolate(until, 2*time.Hour, 24*time.Hour, 38, 30)
	case until < 48*time.Hour:
		return interpolate(until, 24*time.Hour, 48*time.Hour, 30, 20)
	case until < 7*24*time.Hour:
		return interpolate(until, 48*time.Hour, 7*24*time.Hour, 20, 10)
	default:
		return dueMin
	}
}

// interpolate maps v in [from,to] onto [atFrom,atTo] linearly.
func interpolate(v, from, to time.Duration, atFrom, atTo float64) float64 {
	frac := float64(v-from) / float64(to-from)
	return clampRange(atFrom+(atTo-atFrom)*frac, min(atFrom, atTo), max(atFrom, atTo))
}

func priorityScore(p models.TaskPriority) float64 {
	switch p {
	case models.PriorityUrgent:
		return priorityMax
	case models.PriorityHigh:
		return 20
	case models.PriorityMedium:
		return 12
	case models.PriorityLow:
		return 5
	default:
		return 0
	}
}

func ageScore(t models.Task, now time.Time) float64 {
	days := now.Sub(t.CreatedAt).Hours() / 24
	switch {
	case days > 14:
		return ageMax
	case days > 7:
		return 7
	case days > 3:
		return 4
	default:
		return ageMin
	}
}

// quickWinScore favours short tasks; an unknown estimate sits between "long"
// and "short" rather than being treated as either.
func quickWinScore(t models.Task) float64 {
	if t.EstimatedMinutes == nil {
		return quickWinUnknown
	}
	switch m := *t.EstimatedMinutes; {
	case m <= 5:
		return quickWinMax
	case m <= 15:
		return 8
	case m <= 30:
		return 5
	case m <= 60:
		return 2
	default:
		return 0
	}
}

// hourBand scores the half-open hour range [from,to).
type hourBand struct {
	from, to int
	points   float64
}

// Static time-of-day affinity for the built-in categories. Hours outside
// every band fall back to the category's base value.
var (
	timeFitBands = map[string][]hourBand{
		string(models.CategoryWork):     {{6, 12, 10}, {12, 17, 6}},
		string(models.CategoryPersonal): {{12, 17, 6}, {17, 22, 10}},
		string(models.CategoryHealth):   {{5, 10, 10}, {17, 21, 8}},
		string(models.CategoryErrands):  {{8, 10, 6}, {10, 18, 10}, {18, 20, 6}},
		string(models.CategoryFinance):  {{9, 12, 10}, {12, 17, 7}},
		string(models.CategoryLearning): {{6, 9, 8}, {19, 23, 10}},
		string(models.CategoryHome):     {{8, 12, 6}, {17, 22, 10}},
	}
	timeFitBase = map[string]float64{
		string(models.CategoryWork):     2,
		string(models.CategoryPersonal): 2,
		string(models.CategoryHealth):   4,
		string(models.CategoryErrands):  2,
		string(models.CategoryFinance):  2,
		string(models.CategoryLearning): 4,
		string(models.CategoryHome):     3,
	}
)

// timeFitScore reads the static table for built-in categories. User-defined
// categories fall back to learned completion hours, and to a neutral value
// when nothing has been observed yet.
func timeFitScore(category string, hour int, patterns PatternReader) float64 {
	if bands, ok := timeFitBands[category]; ok {
		for _, band := range bands {
			if hour >= band.from && hour < band.to {
				return clampRange(band.points, timeFitMin, timeFitMax)
			}
		}
		return clampRange(timeFitBase[category], timeFitMin, timeFitMax)
	}
	if category == string(models.CategoryNone) || patterns == nil {
		return timeFitNeutral
	}

	peak := patterns.PeakHourCount(category)
	if peak == 0 {
		return timeFitNeutral
	}
	share := float64(patterns.HourCount(category, hour)) / float64(peak)
	return clampRange(timeFitMin+(timeFitMax-timeFitMin)*share, timeFitMin, timeFitMax)
}

func momentumScore(category string, patterns PatternReader) float64 {
	if patterns == nil || category == "" || category == string(models.CategoryNone) {
		return 0
	}
	if patterns.LastCompletedCategory() == category {
		return momentumBonus
	}
	return 0
}

// reasons renders the strongest factors as short human-readable phrases.
func reasons(t models.Task, now time.Time, b Breakdown) []string {
	var out []string

	if due := t.DueAt(); due != nil {
		until := due.Sub(now)
		switch {
		case until <= 0:
			out = append(out, "overdue")
		case until < 2*time.Hour:
			out = append(out, "due in under 2 hours")
		case until < 24*time.Hour:
			out = append(out, "due today")
		case until < 48*time.Hour:
			out = append(out, "due within 2 days")
		case until < 7*24*time.Hour:
			out = append(out, "due this week")
		}
	}

	if t.Priority == models.PriorityUrgent || t.Priority == models.PriorityHigh {
		out = append(out, fmt.Sprintf("%s priority", t.Priority))
	}

	if b.Age >= 7 {
		out = append(out, "waiting over a week")
	}

	if t.EstimatedMinutes != nil && *t.EstimatedMinutes <= 15 {
		out = append(out, fmt.Sprintf("quick win (%d min)", *t.EstimatedMinutes))
	}

	if b.TimeFit >= 8 {
		out = append(out, fmt.Sprintf("good time of day for %s", t.EffectiveCategory()))
	}

	if b.Momentum > 0 {
		out = append(out, fmt.Sprintf("you just finished a %s task", t.EffectiveCategory()))
	}

	return out
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
