package gallery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"facewatch/internal/log"
	"facewatch/pkg/face"
)

// Registrar adds new users to the gallery and the durable store.
type Registrar struct {
	detector face.Detector
	gallery  *Gallery
	store    Store
}

// NewRegistrar creates a registration service.
func NewRegistrar(detector face.Detector, g *Gallery, store Store) *Registrar {
	return &Registrar{detector: detector, gallery: g, store: store}
}

// Register extracts the primary face embedding from the image and adds a
// new user. The user is persisted first and then appended to the in-memory
// gallery, so it is visible to matching as soon as Register returns.
// Multiple faces in the image fall back to the primary-face policy rather
// than failing.
func (r *Registrar) Register(ctx context.Context, name string, jpeg []byte) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if r.gallery.Contains(name) {
		return nil, ErrDuplicateName
	}

	faces, err := r.detector.Detect(jpeg)
	if err != nil {
		return nil, err
	}
	primary := face.Primary(faces)
	if primary == nil {
		return nil, ErrNoFaceFound
	}

	if dim := r.gallery.dimension(); dim > 0 && len(primary.Embedding) != dim {
		return nil, ErrDimensionMismatch
	}

	u := User{
		ID:           uuid.New(),
		Name:         name,
		Embedding:    normalize(primary.Embedding),
		RegisteredAt: time.Now(),
	}

	if err := r.store.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("persist user %q: %w", name, err)
	}
	if err := r.gallery.add(u); err != nil {
		return nil, err
	}

	log.Info("user registered", "name", name, "id", u.ID)
	return &u, nil
}

// dimension returns the gallery's embedding dimensionality, 0 when empty.
func (g *Gallery) dimension() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.users) == 0 {
		return 0
	}
	return len(g.users[0].Embedding)
}
