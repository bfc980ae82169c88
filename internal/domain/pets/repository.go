package pets

import "context"

// Repository lo implementan los adapters de storage (sqlite, postgres, memory).
// GetByID, Update y Delete devuelven ErrNotFound cuando el id no existe.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	GetByID(ctx context.Context, id int64) (Pet, error)
	Create(ctx context.Context, p Pet) (Pet, error)
	Update(ctx context.Context, id int64, patch Patch) (Pet, error)
	Delete(ctx context.Context, id int64) error
}
