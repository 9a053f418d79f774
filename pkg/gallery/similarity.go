package gallery

import "math"

// Similarity maps the cosine of two embeddings onto a 0-100 scale: 100 for
// identical vectors, monotonically decreasing with angular distance. The
// score is symmetric in its arguments. Mismatched or empty vectors score 0.
func Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	score := (cos + 1) / 2 * 100

	// Guard against float drift at the ends of the scale.
	return math.Min(100, math.Max(0, score))
}

// normalize returns the L2-normalized copy of v. A zero vector is returned
// unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	n := math.Sqrt(sum)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
