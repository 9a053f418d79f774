// Package gallery holds the registered users and matches query embeddings
// against them.
package gallery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User is one registered identity. Immutable once created.
type User struct {
	ID           uuid.UUID
	Name         string
	Embedding    []float32
	RegisteredAt time.Time
}

// Store persists registered users durably. Implementations must make a
// saved user visible to LoadUsers on the next process start.
type Store interface {
	SaveUser(ctx context.Context, u User) error
	LoadUsers(ctx context.Context) ([]User, error)
}

// Match is the result of matching one embedding against the gallery. The
// best similarity is reported even when the face is unknown.
type Match struct {
	Known      bool
	User       string
	Similarity float64
}

// Gallery is the in-memory set of registered users. Reads take a snapshot
// of the entry slice, so a Match in progress never observes a
// partially-constructed entry appended by a concurrent registration.
type Gallery struct {
	mu    sync.RWMutex
	users []User
}

// New creates an empty gallery.
func New() *Gallery {
	return &Gallery{}
}

// Load replaces the gallery contents from durable storage. Called once at
// process start.
func (g *Gallery) Load(ctx context.Context, store Store) error {
	users, err := store.LoadUsers(ctx)
	if err != nil {
		return err
	}

	normalized := make([]User, 0, len(users))
	for _, u := range users {
		u.Embedding = normalize(u.Embedding)
		normalized = append(normalized, u)
	}

	g.mu.Lock()
	g.users = normalized
	g.mu.Unlock()
	return nil
}

// add appends a user, enforcing the constant-dimensionality invariant.
// The slice is copied on append so concurrent readers keep a stable view.
func (g *Gallery) add(u User) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.users) > 0 && len(u.Embedding) != len(g.users[0].Embedding) {
		return ErrDimensionMismatch
	}

	next := make([]User, len(g.users), len(g.users)+1)
	copy(next, g.users)
	g.users = append(next, u)
	return nil
}

// Contains reports whether the trimmed name is already registered.
// Comparison is case-insensitive: names are the external identity key.
func (g *Gallery) Contains(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, u := range g.users {
		if strings.ToLower(u.Name) == name {
			return true
		}
	}
	return false
}

// Size returns the number of registered users.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.users)
}

// Users returns a snapshot of the registered users.
func (g *Gallery) Users() []User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.users
}

// MatchEmbedding finds the best-scoring gallery entry for the query
// embedding. Known iff the best similarity is at or above threshold
// (closed lower bound). An empty gallery yields {Known: false, Similarity: 0}.
func (g *Gallery) MatchEmbedding(embedding []float32, threshold float64) Match {
	g.mu.RLock()
	users := g.users
	g.mu.RUnlock()

	if len(users) == 0 {
		return Match{}
	}

	query := normalize(embedding)

	best := Match{}
	for _, u := range users {
		s := Similarity(query, u.Embedding)
		if s > best.Similarity || best.User == "" {
			best.Similarity = s
			best.User = u.Name
		}
	}

	if best.Similarity >= threshold {
		best.Known = true
	} else {
		best.User = ""
	}
	return best
}
