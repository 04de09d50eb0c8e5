package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	// FindAdminsByUsernames returns the administrators among usernames; unknown
	// and non-admin usernames are simply absent from the result.
	FindAdminsByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, full_name, username, hashed_password, is_admin, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, full_name, username, hashed_password, is_admin)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.FullName, user.Username, user.HashedPassword, user.IsAdmin).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return common.NewError(common.ErrConflict, "Username already exists")
		}
		return errors.Wrap(err, "pgUserRepository.Create")
	}
	return nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.findOne(ctx, "pgUserRepository.FindByUsername", query, username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, "pgUserRepository.FindByID", query, id)
}

func (r *pgUserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	return r.findMany(ctx, "pgUserRepository.FindByIDs", query, ids)
}

func (r *pgUserRepository) FindAdminsByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return []model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE is_admin = TRUE AND username = ANY($1)`
	return r.findMany(ctx, "pgUserRepository.FindAdminsByUsernames", query, usernames)
}

func (r *pgUserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_admin = TRUE ORDER BY username ASC`
	return r.findMany(ctx, "pgUserRepository.ListAdmins", query)
}

func (r *pgUserRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.FullName, &user.Username, &user.HashedPassword, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	return user, nil
}

func (r *pgUserRepository) findMany(ctx context.Context, op, query string, args ...interface{}) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, op+" query")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Username, &u.HashedPassword, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, op+" scan")
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, op+" rows.Err")
	}
	return users, nil
}
