package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreateInput struct {
	Name    string   `validate:"required,max=50"`
	Species string   `validate:"required,max=50"`
	Breed   *string  `validate:"omitempty,max=50"`
	Age     *float64 `validate:"omitempty,gte=0"`
	Price   *float64 `validate:"omitempty,gte=0"`
	Status  *Status  `validate:"omitempty,oneof=available pending sold"`
}

func (s *Service) List(ctx context.Context, status string) ([]Pet, error) {
	return s.repo.List(ctx, ListFilter{Status: Status(strings.TrimSpace(status))})
}

func (s *Service) Get(ctx context.Context, id int64) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

// Create aplica defaults (price 0, status available) y persiste.
func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Breed = trimmed(in.Breed)
	if in.Name == "" || in.Species == "" {
		return Pet{}, fmt.Errorf("%w: name and species are required", ErrInvalidInput)
	}
	if err := s.validate.Struct(in); err != nil {
		return Pet{}, invalid(err)
	}

	p := Pet{
		Name:    in.Name,
		Species: in.Species,
		Breed:   cloneOf(in.Breed),
		Age:     cloneOf(in.Age),
		Price:   0,
		Status:  StatusAvailable,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Status != nil {
		p.Status = *in.Status
	}

	return s.repo.Create(ctx, p)
}

// Update sobrescribe solo los campos presentes en patch.
// Un patch vacío (p.ej. solo campos desconocidos) devuelve el registro actual.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (Pet, error) {
	patch.Name = trimmed(patch.Name)
	patch.Species = trimmed(patch.Species)
	patch.Breed.Value = trimmed(patch.Breed.Value)
	if err := s.validatePatch(patch); err != nil {
		return Pet{}, err
	}
	if patch.Empty() {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete devuelve false (sin error) si el id no existe.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) validatePatch(p Patch) error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if p.Species != nil && *p.Species == "" {
		return fmt.Errorf("%w: species must not be empty", ErrInvalidInput)
	}
	if err := s.validate.Struct(p); err != nil {
		return invalid(err)
	}
	if p.Breed.Value != nil {
		if err := s.validate.Var(*p.Breed.Value, "max=50"); err != nil {
			return fmt.Errorf("%w: breed must be at most 50 characters", ErrInvalidInput)
		}
	}
	if p.Age.Value != nil && *p.Age.Value < 0 {
		return fmt.Errorf("%w: age must be greater than or equal to 0", ErrInvalidInput)
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// invalid traduce los errores del validator a un mensaje legible.
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", ErrInvalidInput, field, fe.Param())
	case "gte":
		return fmt.Errorf("%w: %s must be greater than or equal to %s", ErrInvalidInput, field, fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidInput, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrInvalidInput, field)
	}
}
