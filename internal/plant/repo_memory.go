package plant

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo + InteractionLog used by tests and
// throwaway environments. SQLite is the real store.
type MemoryRepo struct {
	mu           sync.RWMutex
	plants       map[string]State
	interactions []Interaction
	nextInterID  int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{plants: make(map[string]State)}
}

func (r *MemoryRepo) Create(ctx context.Context, s State) (State, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Version <= 0 {
		s.Version = 1
	}
	r.plants[s.ID] = s
	return s, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (State, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.plants[id]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]State, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]State, 0)
	for _, s := range r.plants {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateState(ctx context.Context, s State) (State, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.plants[s.ID]
	if !ok {
		return State{}, ErrNotFound
	}
	if cur.Version != s.Version {
		return State{}, ErrVersionConflict
	}
	s.Version++
	r.plants[s.ID] = s
	return s, nil
}

func (r *MemoryRepo) Log(ctx context.Context, it Interaction) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextInterID++
	it.ID = r.nextInterID
	r.interactions = append(r.interactions, it)
	return nil
}

func (r *MemoryRepo) History(ctx context.Context, plantID string, limit int) ([]Interaction, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Interaction, 0)
	for i := len(r.interactions) - 1; i >= 0; i-- {
		if r.interactions[i].PlantID != plantID {
			continue
		}
		out = append(out, r.interactions[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
