package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petstore/internal/domain/pets"

	sq "github.com/Masterminds/squirrel"
)

var petColumns = []string{"id", "name", "species", "breed", "age", "price", "status"}

const returningPet = "RETURNING id, name, species, breed, age, price, status"

type PetsRepo struct {
	db *sql.DB
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	q := sq.Select(petColumns...).
		From("pets").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Question)
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list pets: %w", err)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan pet: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	query, args, err := sq.Select(petColumns...).
		From("pets").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("sqlite: build get: %w", err)
	}

	return r.queryOne(ctx, "get pet", query, args)
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	query, args, err := sq.Insert("pets").
		Columns("name", "species", "breed", "age", "price", "status").
		Values(p.Name, p.Species, nullable(p.Breed), nullable(p.Age), p.Price, string(p.Status)).
		Suffix(returningPet).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("sqlite: build insert: %w", err)
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
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return pets.Pet{}, fmt.Errorf("sqlite: build update: %w", err)
	}

	return r.queryOne(ctx, "update pet", query, args)
}

func (r *PetsRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("pets").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: delete pet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete pet: %w", err)
	}
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) queryOne(ctx context.Context, op, query string, args []any) (pets.Pet, error) {
	p, err := scanPet(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p      pets.Pet
		breed  sql.NullString
		age    sql.NullFloat64
		status string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Species, &breed, &age, &p.Price, &status); err != nil {
		return pets.Pet{}, err
	}

	if breed.Valid {
		b := breed.String
		p.Breed = &b
	}
	if age.Valid {
		a := age.Float64
		p.Age = &a
	}
	p.Status = pets.Status(status)
	return p, nil
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
