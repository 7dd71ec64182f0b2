// internal/rng/sampler.go

package rng

// Probabilities normalizes weights into probabilities that sum to 1.
// Non-positive weights count as zero. When every weight is zero each entry gets
// 1/n, so nobody becomes unreachable. An empty input yields an empty result.
func Probabilities(weights []float64) []float64 {
	probs := make([]float64, len(weights))
	if len(weights) == 0 {
		return probs
	}

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	if total == 0 {
		uniform := 1 / float64(len(weights))
		for i := range probs {
			probs[i] = uniform
		}
		return probs
	}

	for i, w := range weights {
		if w > 0 {
			probs[i] = w / total
		}
	}
	return probs
}

// SampleWithoutReplacement picks min(k, len(weights)) distinct indices into
// weights, in draw order.
//
// Each pick is made over the indices not chosen yet:
//  1. Sum the remaining weights.
//  2. If the sum is zero, choose uniformly among the remaining indices.
//  3. Otherwise draw u in [0, sum) and walk the remaining indices until the
//     running total exceeds u.
//  4. Drop the chosen index from the remaining set.
//
// weights is read only; the elimination works on a slice of indices.
func SampleWithoutReplacement(src Source, weights []float64, k int) []int {
	if k > len(weights) {
		k = len(weights)
	}
	if k <= 0 {
		return []int{}
	}

	remaining := make([]int, len(weights))
	for i := range remaining {
		remaining[i] = i
	}

	picked := make([]int, 0, k)
	for len(picked) < k {
		pos := pickOne(src, weights, remaining)
		picked = append(picked, remaining[pos])
		remaining = append(remaining[:pos], remaining[pos+1:]...)
	}
	return picked
}

// pickOne returns a position in remaining.
func pickOne(src Source, weights []float64, remaining []int) int {
	total := 0.0
	for _, idx := range remaining {
		if w := weights[idx]; w > 0 {
			total += w
		}
	}
	if total == 0 {
		return src.IntN(len(remaining))
	}

	u := src.Float64() * total
	cum := 0.0
	last := -1
	for pos, idx := range remaining {
		w := weights[idx]
		if w <= 0 {
			continue
		}
		cum += w
		last = pos
		if u < cum {
			return pos
		}
	}
	// Rounding can leave u at the very top of the range.
	return last
}

// Decay is the weight a student gets after being drawn drawCount times in
// total: 1/(drawCount+1)^2. It shrinks with every draw but never reaches zero.
func Decay(drawCount int) float64 {
	d := float64(drawCount + 1)
	return 1 / (d * d)
}
