package pets

// Status define el estado de inventario de una mascota.
// @Enum available, pending, sold
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	default:
		return false
	}
}

// Pet representa un animal del inventario de la tienda.
type Pet struct {
	ID int64

	Name    string
	Species string
	Breed   *string // nil = sin raza
	Age     *float64

	Price  float64
	Status Status
}

// ListFilter: campos vacíos = sin filtro.
type ListFilter struct {
	Status Status
}
