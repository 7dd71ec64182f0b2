package picker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/rng"
)

// WithProbabilities returns copies of students with Probability filled in.
// The input slice is not modified.
func WithProbabilities(students []models.Student) []models.Student {
	out := make([]models.Student, len(students))
	copy(out, students)

	probs := rng.Probabilities(weightsOf(out))
	for i := range out {
		p := probs[i]
		out[i].Probability = &p
	}
	return out
}

// Draw proposes k students from population using weighted sampling without
// replacement. When candidateIDs is non-empty the draw is restricted to those
// students, and every id must belong to population. Fewer than k students are
// returned when the pool is smaller than k.
func Draw(src rng.Source, population []models.Student, k int, candidateIDs []uuid.UUID) ([]models.Student, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", ErrValidation, k)
	}

	pool, err := filterPool(population, candidateIDs)
	if err != nil {
		return nil, err
	}

	picked := rng.SampleWithoutReplacement(src, weightsOf(pool), k)
	drawn := make([]models.Student, 0, len(picked))
	for _, idx := range picked {
		drawn = append(drawn, pool[idx])
	}
	return drawn, nil
}

// ApplyDecay records one more draw for each student and lowers its weight to
// 1/(draw_count+1)^2. Only the given students change.
func ApplyDecay(students []models.Student) {
	for i := range students {
		students[i].DrawCount++
		students[i].Weight = rng.Decay(students[i].DrawCount)
	}
}

func filterPool(population []models.Student, candidateIDs []uuid.UUID) ([]models.Student, error) {
	if len(candidateIDs) == 0 {
		return population, nil
	}

	byID := make(map[uuid.UUID]int, len(population))
	for i, s := range population {
		byID[s.ID] = i
	}

	pool := make([]models.Student, 0, len(candidateIDs))
	seen := make(map[uuid.UUID]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		idx, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: student %s does not belong to this classroom", ErrValidation, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		pool = append(pool, population[idx])
	}
	return pool, nil
}

func weightsOf(students []models.Student) []float64 {
	weights := make([]float64, len(students))
	for i, s := range students {
		weights[i] = s.Weight
	}
	return weights
}
