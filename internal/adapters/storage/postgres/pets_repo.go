package postgres

import (
	"context"
	"errors"
	"fmt"

	"petstore/internal/domain/pets"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var petColumns = []string{"id", "name", "species", "breed", "age", "price", "status"}

const returningPet = "RETURNING id, name, species, breed, age, price, status"

type PetsRepo struct {
	db DB
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	q := sq.Select(petColumns...).
		From("pets").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pets: %w", err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pet: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	query, args, err := sq.Select(petColumns...).
		From("pets").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: build get: %w", err)
	}

	return r.queryOne(ctx, "get pet", query, args)
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	query, args, err := sq.Insert("pets").
		Columns("name", "species", "breed", "age", "price", "status").
		Values(p.Name, p.Species, p.Breed, p.Age, p.Price, string(p.Status)).
		Suffix(returningPet).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: build insert: %w", err)
	}

	return r.queryOne(ctx, "create pet", query, args)
}

// Update escribe solo las columnas presentes en el patch, en un único UPDATE ... RETURNING.
func (r *PetsRepo) Update(ctx context.Context, id int64, patch pets.Patch) (pets.Pet, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args, err := sq.Update("pets").
		SetMap(patch.Changes()).
		Where(sq.Eq{"id": id}).
		Suffix(returningPet).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: build update: %w", err)
	}

	return r.queryOne(ctx, "update pet", query, args)
}

func (r *PetsRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("pets").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: delete pet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) queryOne(ctx context.Context, op, query string, args []any) (pets.Pet, error) {
	p, err := scanPet(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, fmt.Errorf("postgres: %s: %w", op, err)
	}
	return p, nil
}

// scanPet: pgx escanea NULL directo en **string / **float64.
func scanPet(row pgx.Row) (pets.Pet, error) {
	var (
		p      pets.Pet
		status string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Species, &p.Breed, &p.Age, &p.Price, &status); err != nil {
		return pets.Pet{}, err
	}
	p.Status = pets.Status(status)
	return p, nil
}
