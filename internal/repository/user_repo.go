package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eliasspt/api-flight/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// too, which is what makes the repository testable without a live database.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrDuplicateEmail is returned when an insert or update trips the UNIQUE
// constraint on correo. The uniqueness pre-check is not atomic with the write,
// so the constraint is the authoritative guard.
var ErrDuplicateEmail = errors.New("correo already registered")

// UserRepository defines operations for user data
type UserRepository interface {
	Count(ctx context.Context) (int, error)
	ExistsByID(ctx context.Context, id int) (bool, error)
	EmailTaken(ctx context.Context, correo string, excludeID int) (bool, error)
	Create(ctx context.Context, user *model.User) error
	FindPublicByID(ctx context.Context, id int) (*model.PublicUser, error)
	FindAllPublic(ctx context.Context) ([]model.PublicUser, error)
	Update(ctx context.Context, id int, cols []string, args []any) (int64, error)
	Delete(ctx context.Context, id int) (int64, error)
	FindAuthByEmail(ctx context.Context, correo string) (*model.AuthRecord, error)
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// Count returns the total number of registered users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var total int
	sql := `SELECT COUNT(id) FROM usuarios`
	if err := r.db.QueryRow(ctx, sql).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// ExistsByID reports whether a user row with the given id exists
func (r *userRepository) ExistsByID(ctx context.Context, id int) (bool, error) {
	var found int
	sql := `SELECT id FROM usuarios WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

// EmailTaken reports whether correo is already registered. A non-zero
// excludeID leaves that row out of the check, so a user may keep their own
// email on update.
func (r *userRepository) EmailTaken(ctx context.Context, correo string, excludeID int) (bool, error) {
	var found int
	var err error
	if excludeID == 0 {
		sql := `SELECT id FROM usuarios WHERE correo = $1`
		err = r.db.QueryRow(ctx, sql, correo).Scan(&found)
	} else {
		sql := `SELECT id FROM usuarios WHERE correo = $1 AND id != $2`
		err = r.db.QueryRow(ctx, sql, correo, excludeID).Scan(&found)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return true, nil
}

// Create inserts a new user and fills in the generated id
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO usuarios (nombre, telefono, correo, contrasena, rol)
            VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRow(ctx, sql, user.Nombre, user.Telefono, user.Correo, user.PasswordHash, user.Rol).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindPublicByID retrieves the public projection of a user, nil when absent
func (r *userRepository) FindPublicByID(ctx context.Context, id int) (*model.PublicUser, error) {
	u := &model.PublicUser{}
	sql := `SELECT id, nombre, telefono, correo, actualizado, registrado FROM usuarios WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&u.ID, &u.Nombre, &u.Telefono, &u.Correo, &u.Actualizado, &u.Registrado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is handled by the service layer
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// FindAllPublic retrieves the public projection of every user
func (r *userRepository) FindAllPublic(ctx context.Context) ([]model.PublicUser, error) {
	sql := `SELECT id, nombre, telefono, correo, actualizado, registrado FROM usuarios ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.PublicUser{}
	for rows.Next() {
		var u model.PublicUser
		if err := rows.Scan(&u.ID, &u.Nombre, &u.Telefono, &u.Correo, &u.Actualizado, &u.Registrado); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}
	return users, nil
}

// Update applies a single combined UPDATE over the given columns. The column
// names come from a fixed whitelist in the service layer; only the values are
// caller-supplied, and those are always bound as parameters.
func (r *userRepository) Update(ctx context.Context, id int, cols []string, args []any) (int64, error) {
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	sql := fmt.Sprintf("UPDATE usuarios SET %s WHERE id = $%d", strings.Join(sets, ", "), len(cols)+1)
	tag, err := r.db.Exec(ctx, sql, append(args, id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("failed to update user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a user row
func (r *userRepository) Delete(ctx context.Context, id int) (int64, error) {
	sql := `DELETE FROM usuarios WHERE id = $1`
	tag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FindAuthByEmail retrieves the credentials record for login, nil when absent
func (r *userRepository) FindAuthByEmail(ctx context.Context, correo string) (*model.AuthRecord, error) {
	rec := &model.AuthRecord{}
	sql := `SELECT id, contrasena, rol FROM usuarios WHERE correo = $1`
	err := r.db.QueryRow(ctx, sql, correo).Scan(&rec.ID, &rec.PasswordHash, &rec.Rol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find auth record: %w", err)
	}
	return rec, nil
}

// isUniqueViolation reports whether err is a unique constraint violation
// (pgerrcode 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
