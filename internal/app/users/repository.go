package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nuid"
)

var ErrDuplicateUsername = errors.New("username already exists")

// User is the read model referenced by todo owners, assignees and note authors.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Repository interface {
	EnsureSchema(ctx context.Context) error
	List(ctx context.Context) ([]User, error)
	// FindByIDs returns the users whose id is in ids. Unknown ids are
	// skipped, order is unspecified.
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
	Insert(ctx context.Context, user User) (User, error)
}

type PostgresRepository struct {
	Pool  *pgxpool.Pool
	NewID func() string
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool, NewID: nuid.Next}
}

const createUsersSQL = `
CREATE TABLE IF NOT EXISTS users (
  id text PRIMARY KEY,
  username text NOT NULL UNIQUE,
  name text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT now()
)`

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, createUsersSQL)
	return err
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, username, name FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT id, username, name FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]User, 0, len(ids))
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = r.NewID()
	}
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO users (id, username, name) VALUES ($1, $2, $3)`,
		user.ID, user.Username, user.Name,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return User{}, ErrDuplicateUsername
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
