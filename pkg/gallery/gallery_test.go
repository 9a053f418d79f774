package gallery

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"facewatch/pkg/face"
)

func embedding(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.01
	}
	return v
}

func TestSimilarity_Identical(t *testing.T) {
	e := embedding(128, 0.5)
	if got := Similarity(e, e); math.Abs(got-100) > 1e-9 {
		t.Errorf("Similarity(e, e) = %v, want 100", got)
	}
}

func TestSimilarity_SymmetricAndBounded(t *testing.T) {
	pairs := [][2][]float32{
		{embedding(128, 0.1), embedding(128, 0.9)},
		{embedding(128, -1), embedding(128, 1)},
		{{1, 0, 0}, {0, 1, 0}},
		{{1, 0}, {-1, 0}},
	}
	for i, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("pair %d: asymmetric %v vs %v", i, ab, ba)
		}
		if ab < 0 || ab > 100 {
			t.Errorf("pair %d: similarity %v out of [0,100]", i, ab)
		}
	}
}

func TestSimilarity_OppositeVectorsScoreZero(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{-1, 0, 0}
	if got := Similarity(a, b); got != 0 {
		t.Errorf("opposite vectors = %v, want 0", got)
	}
}

func TestMatchEmbedding_EmptyGallery(t *testing.T) {
	g := New()
	m := g.MatchEmbedding(embedding(128, 0.5), 70)
	if m.Known || m.Similarity != 0 || m.User != "" {
		t.Errorf("empty gallery match = %+v, want zero Match", m)
	}
}

func TestMatchEmbedding_ThresholdBoundary(t *testing.T) {
	g := New()
	e := embedding(128, 0.5)
	if err := g.add(User{Name: "alice", Embedding: normalize(e)}); err != nil {
		t.Fatal(err)
	}

	// Use the exact computed similarity as the threshold: equality must
	// classify as known (closed lower bound).
	score := g.MatchEmbedding(e, 0).Similarity
	if score < 99.9 {
		t.Fatalf("identical embedding scored %v, want ~100", score)
	}

	m := g.MatchEmbedding(e, score)
	if !m.Known {
		t.Errorf("similarity equal to threshold must classify as known: %+v", m)
	}

	m = g.MatchEmbedding(e, score+0.001)
	if m.Known {
		t.Errorf("similarity below threshold must classify as unknown: %+v", m)
	}
	if m.Similarity < 99.9 {
		t.Errorf("best similarity must still be reported for unknown: %+v", m)
	}
	if m.User != "" {
		t.Errorf("unknown match must not name a user: %+v", m)
	}
}

func TestRegistrar_RegisterThenMatch(t *testing.T) {
	e := embedding(128, 0.3)
	det := face.NewMockDetector(MockFace(e))
	g := New()
	r := NewRegistrar(det, g, NewMemoryStore())

	u, err := r.Register(context.Background(), "  Alice ", []byte("jpeg"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Name != "Alice" {
		t.Errorf("name not trimmed: %q", u.Name)
	}

	// Immediately visible to matching.
	m := g.MatchEmbedding(e, 70)
	if !m.Known || m.User != "Alice" {
		t.Errorf("match after register = %+v, want known Alice", m)
	}

	// Noisy perturbation within tolerance still matches.
	noisy := make([]float32, len(e))
	copy(noisy, e)
	noisy[0] += 0.01
	m = g.MatchEmbedding(noisy, 70)
	if !m.Known || m.User != "Alice" {
		t.Errorf("noisy match = %+v, want known Alice", m)
	}
}

func TestRegistrar_DuplicateNameLeavesGalleryUnchanged(t *testing.T) {
	e := embedding(128, 0.3)
	det := face.NewMockDetector(MockFace(e))
	g := New()
	r := NewRegistrar(det, g, NewMemoryStore())

	if _, err := r.Register(context.Background(), "Bob", []byte("jpeg")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := r.Register(context.Background(), " bob ", []byte("jpeg"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("got %v, want ErrDuplicateName", err)
	}
	if g.Size() != 1 {
		t.Errorf("gallery size = %d after duplicate, want 1", g.Size())
	}
}

func TestRegistrar_NoFaceFound(t *testing.T) {
	det := face.NewMockDetector(face.MockResult{})
	r := NewRegistrar(det, New(), NewMemoryStore())

	_, err := r.Register(context.Background(), "Carol", []byte("jpeg"))
	if !errors.Is(err, ErrNoFaceFound) {
		t.Errorf("got %v, want ErrNoFaceFound", err)
	}
}

func TestRegistrar_EmptyName(t *testing.T) {
	det := face.NewMockDetector(MockFace(embedding(128, 0.3)))
	r := NewRegistrar(det, New(), NewMemoryStore())

	_, err := r.Register(context.Background(), "   ", []byte("jpeg"))
	if !errors.Is(err, ErrEmptyName) {
		t.Errorf("got %v, want ErrEmptyName", err)
	}
}

func TestRegistrar_DimensionMismatchRejected(t *testing.T) {
	g := New()
	det := face.NewMockDetector(
		MockFace(embedding(128, 0.3)),
		MockFace(embedding(64, 0.3)),
	)
	r := NewRegistrar(det, g, NewMemoryStore())

	if _, err := r.Register(context.Background(), "Dave", []byte("jpeg")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := r.Register(context.Background(), "Erin", []byte("jpeg"))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if g.Size() != 1 {
		t.Errorf("mismatched entry must never be inserted, size = %d", g.Size())
	}
}

func TestRegistrar_MultipleFacesUsePrimary(t *testing.T) {
	big := embedding(128, 0.8)
	small := embedding(128, 0.1)
	det := face.NewMockDetector(face.MockResult{Faces: []face.Face{
		{Box: image.Rect(0, 0, 20, 20), Embedding: small},
		{Box: image.Rect(30, 0, 130, 100), Embedding: big},
	}})
	g := New()
	r := NewRegistrar(det, g, NewMemoryStore())

	if _, err := r.Register(context.Background(), "Frank", []byte("jpeg")); err != nil {
		t.Fatalf("Register with multiple faces failed: %v", err)
	}

	m := g.MatchEmbedding(big, 70)
	if !m.Known || m.User != "Frank" {
		t.Errorf("expected registration to use the largest face, match = %+v", m)
	}
}

// MockFace wraps a single-face detection result.
func MockFace(embedding []float32) face.MockResult {
	return face.MockResult{Faces: []face.Face{
		{Box: image.Rect(0, 0, 100, 100), Confidence: 0.9, Embedding: embedding},
	}}
}
