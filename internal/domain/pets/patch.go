package pets

import "encoding/json"

// Optional distingue "campo no enviado" de "campo enviado como null".
// Se usa en los campos que admiten limpiarse (breed, age).
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some construye un Optional con valor.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null construye un Optional que limpia el campo.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON solo se invoca cuando la clave está presente en el body,
// incluso si el valor es null.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Patch es la lista cerrada de campos actualizables.
// id no forma parte: nunca se puede sobrescribir.
type Patch struct {
	Name    *string  `validate:"omitempty,max=50"`
	Species *string  `validate:"omitempty,max=50"`
	Breed   Optional[string]
	Age     Optional[float64]
	Price   *float64 `validate:"omitempty,gte=0"`
	Status  *Status  `validate:"omitempty,oneof=available pending sold"`
}

func (p Patch) Empty() bool {
	return p.Name == nil &&
		p.Species == nil &&
		!p.Breed.Set &&
		!p.Age.Set &&
		p.Price == nil &&
		p.Status == nil
}

// Apply devuelve una copia de pet con los campos enviados sobrescritos.
func (p Patch) Apply(pet Pet) Pet {
	if p.Name != nil {
		pet.Name = *p.Name
	}
	if p.Species != nil {
		pet.Species = *p.Species
	}
	if p.Breed.Set {
		pet.Breed = cloneOf(p.Breed.Value)
	}
	if p.Age.Set {
		pet.Age = cloneOf(p.Age.Value)
	}
	if p.Price != nil {
		pet.Price = *p.Price
	}
	if p.Status != nil {
		pet.Status = *p.Status
	}
	return pet
}

// Changes devuelve los campos enviados con el nombre de su columna.
// Un Optional con Value nil se traduce a NULL.
func (p Patch) Changes() map[string]any {
	out := map[string]any{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Species != nil {
		out["species"] = *p.Species
	}
	if p.Breed.Set {
		if p.Breed.Value == nil {
			out["breed"] = nil
		} else {
			out["breed"] = *p.Breed.Value
		}
	}
	if p.Age.Set {
		if p.Age.Value == nil {
			out["age"] = nil
		} else {
			out["age"] = *p.Age.Value
		}
	}
	if p.Price != nil {
		out["price"] = *p.Price
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	return out
}

func cloneOf[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
