package priority

import (
	"context"
	"sort"
	"time"

	"github.com/tasktide/tasktide/internal/learn"
	"github.com/tasktide/tasktide/models"
)

// Confidence labels how strongly a suggestion stands out from the rest of the
// ranked population.
type Confidence string

const (
	ConfidenceRecommended Confidence = "recommended"
	ConfidenceStrong      Confidence = "strong"
	ConfidenceConsider    Confidence = "consider"
)

// diversityGap is the effective-score distance above which a same-category
// candidate still earns a top-pick slot.
const diversityGap = 10.0

// Suggestion is one ranked task with its scoring detail.
type Suggestion struct {
	Task       models.Task `json:"task"`
	Breakdown  Breakdown   `json:"breakdown"`
	Score      float64     `json:"score"`
	Adjustment float64     `json:"adjustment"`
	Effective  float64     `json:"effective"`
	Confidence Confidence  `json:"confidence"`
	Snoozed    bool        `json:"snoozed,omitempty"`
}

// Decorator optionally rephrases a suggestion's reasons, e.g. through a
// language model. Ranking never depends on it.
type Decorator interface {
	Decorate(ctx context.Context, s Suggestion) (string, error)
}

// Engine ranks tasks using the base score plus learned feedback adjustments.
type Engine struct {
	feedback *learn.FeedbackStore
	patterns *learn.PatternStore
}

// NewEngine builds a ranking engine over the two learning stores.
func NewEngine(feedback *learn.FeedbackStore, patterns *learn.PatternStore) *Engine {
	return &Engine{feedback: feedback, patterns: patterns}
}

// Score computes the base breakdown for one task.
func (e *Engine) Score(t models.Task, now time.Time) Breakdown {
	return Score(t, now, e.patterns)
}

// Effective applies the task's feedback adjustment on top of the base score,
// clamped back into 0..100.
func (e *Engine) Effective(t models.Task, now time.Time) (Breakdown, float64) {
	b := e.Score(t, now)
	eff := clampRange(b.Total+e.feedback.Adjustment(t.ID), 0, scoreMax)
	return b, eff
}

// Rank scores every actionable task and returns them ordered by effective
// score, highest first. Snoozed tasks keep their place in the list but are
// marked so suggestion pickers can pass over them. Ties break by creation
// time, then ID, so the order is stable across runs.
func (e *Engine) Rank(tasks []models.Task, now time.Time) []Suggestion {
	out := make([]Suggestion, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsActionable() {
			continue
		}
		b, eff := e.Effective(t, now)
		out = append(out, Suggestion{
			Task:       t,
			Breakdown:  b,
			Score:      b.Total,
			Adjustment: e.feedback.Adjustment(t.ID),
			Effective:  eff,
			Snoozed:    e.feedback.IsSnoozed(t.ID, now),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Effective != out[j].Effective {
			return out[i].Effective > out[j].Effective
		}
		if !out[i].Task.CreatedAt.Equal(out[j].Task.CreatedAt) {
			return out[i].Task.CreatedAt.Before(out[j].Task.CreatedAt)
		}
		return out[i].Task.ID < out[j].Task.ID
	})

	population := make([]float64, len(out))
	for i, s := range out {
		population[i] = s.Effective
	}
	for i := range out {
		out[i].Confidence = confidenceFor(out[i].Effective, population)
	}
	return out
}

// SuggestedNext returns the highest-ranked task that is not snoozed.
func SuggestedNext(ranked []Suggestion) *Suggestion {
	for i := range ranked {
		if !ranked[i].Snoozed {
			s := ranked[i]
			return &s
		}
	}
	return nil
}

// TopPicks selects up to n suggestions with a greedy diversity rule: the top
// task always makes it, and a further candidate makes it when its category
// differs from everything already selected, or when it trails the top by more
// than diversityGap. Leftover slots are back-filled in rank order, and the
// result is ordered by effective score.
func TopPicks(ranked []Suggestion, n int) []Suggestion {
	if n <= 0 {
		return nil
	}
	pool := make([]Suggestion, 0, len(ranked))
	for _, s := range ranked {
		if !s.Snoozed {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	selected := []Suggestion{pool[0]}
	usedCategories := map[string]bool{pool[0].Task.EffectiveCategory(): true}
	top := pool[0].Effective
	var passedOver []Suggestion

	for _, s := range pool[1:] {
		if len(selected) == n {
			break
		}
		category := s.Task.EffectiveCategory()
		if !usedCategories[category] || top-s.Effective > diversityGap {
			selected = append(selected, s)
			usedCategories[category] = true
			continue
		}
		passedOver = append(passedOver, s)
	}
	for _, s := range passedOver {
		if len(selected) == n {
			break
		}
		selected = append(selected, s)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Effective > selected[j].Effective
	})
	return selected
}

// confidenceFor buckets a score by the share of the population strictly above
// it: the top decile reads "recommended", the top three deciles "strong".
func confidenceFor(effective float64, population []float64) Confidence {
	if len(population) <= 1 {
		return ConfidenceRecommended
	}
	higher := 0
	for _, v := range population {
		if v > effective {
			higher++
		}
	}
	switch share := float64(higher) / float64(len(population)); {
	case share <= 0.10:
		return ConfidenceRecommended
	case share <= 0.30:
		return ConfidenceStrong
	default:
		return ConfidenceConsider
	}
}
