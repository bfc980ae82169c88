package memory

import (
	"context"
	"sort"
	"sync"

	"petstore/internal/domain/pets"
)

type PetRepo struct {
	mu     sync.RWMutex
	byID   map[int64]pets.Pet
	lastID int64 // nunca decrece: los ids borrados no se reutilizan
}

var _ pets.Repository = (*PetRepo)(nil)

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID: make(map[int64]pets.Pet),
	}
}

// Ping existe para cumplir health.Pinger; el repo en memoria siempre está disponible.
func (r *PetRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *PetRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, clonePet(p))
	}

	// Orden por id asc, igual que los repos SQL
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *PetRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	p.ID = r.lastID
	r.byID[p.ID] = clonePet(p)
	return clonePet(p), nil
}

func (r *PetRepo) Update(ctx context.Context, id int64, patch pets.Patch) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	updated := patch.Apply(current)
	r.byID[id] = updated
	return clonePet(updated), nil
}

func (r *PetRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// clonePet evita compartir los punteros de breed/age con el caller.
func clonePet(p pets.Pet) pets.Pet {
	if p.Breed != nil {
		b := *p.Breed
		p.Breed = &b
	}
	if p.Age != nil {
		a := *p.Age
		p.Age = &a
	}
	return p
}
