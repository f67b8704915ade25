package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/models"
)

const accountColumns = `id, handle, full_name, email, password_hash, avatar_url, avatar_key,
        cover_image_url, cover_image_key, created_at, updated_at`

// prefixed qualifies every column in a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// writeError maps constraint violations onto the package sentinels.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Handle, &a.FullName, &a.Email, &a.PasswordHash, &a.AvatarURL, &a.AvatarKey,
		&a.CoverImageURL, &a.CoverImageKey, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectAccounts(rows pgx.Rows, op string) ([]models.Account, error) {
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return accounts, nil
}

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account. Handle or email collisions yield ErrConflict.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, handle, full_name, email, password_hash, avatar_url, avatar_key,
            cover_image_url, cover_image_key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, account.ID, account.Handle, account.FullName, account.Email, account.PasswordHash, account.AvatarURL,
		account.AvatarKey, account.CoverImageURL, account.CoverImageKey, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return writeError("insert account", err)
	}

	return nil
}

// FindByID fetches an account by identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, "select account by id", `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByHandle fetches an account by its lower-cased handle.
func (r *PostgresAccountRepository) FindByHandle(ctx context.Context, handle string) (models.Account, error) {
	return r.findOne(ctx, "select account by handle", `SELECT `+accountColumns+` FROM accounts WHERE handle = $1`, handle)
}

// FindByHandleOrEmail resolves a login identifier that may be either a handle or an email.
func (r *PostgresAccountRepository) FindByHandleOrEmail(ctx context.Context, login string) (models.Account, error) {
	return r.findOne(ctx, "select account by login", `
        SELECT `+accountColumns+`
        FROM accounts
        WHERE handle = $1 OR email = $1
        LIMIT 1
    `, login)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, op, query string, arg string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	account, err := scanAccount(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// FindByIDs returns the accounts that exist among ids, keyed by id.
func (r *PostgresAccountRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	found := make(map[string]models.Account, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query accounts by ids: %w", err)
	}
	accounts, err := collectAccounts(rows, "accounts by ids")
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		found[account.ID] = account
	}
	return found, nil
}

// UpdateProfile changes the display name and email and returns the stored account.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, id, fullName, email string, updatedAt time.Time) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	account, err := scanAccount(conn.QueryRow(ctx, `
        UPDATE accounts
        SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+accountColumns, id, fullName, email, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, writeError("update account profile", err)
	}
	return account, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return execAffecting(ctx, r.pool, "update account password", `
        UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, passwordHash, updatedAt)
}

// UpdateAvatar points the account at a newly stored avatar object.
func (r *PostgresAccountRepository) UpdateAvatar(ctx context.Context, id, url, key string, updatedAt time.Time) error {
	return execAffecting(ctx, r.pool, "update account avatar", `
        UPDATE accounts SET avatar_url = $2, avatar_key = $3, updated_at = $4 WHERE id = $1
    `, id, url, key, updatedAt)
}

// UpdateCoverImage points the account at a newly stored cover image object.
func (r *PostgresAccountRepository) UpdateCoverImage(ctx context.Context, id, url, key string, updatedAt time.Time) error {
	return execAffecting(ctx, r.pool, "update account cover image", `
        UPDATE accounts SET cover_image_url = $2, cover_image_key = $3, updated_at = $4 WHERE id = $1
    `, id, url, key, updatedAt)
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
