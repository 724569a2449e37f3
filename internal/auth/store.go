package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/dukerupert/fitletter/internal/database"
	"github.com/dukerupert/fitletter/internal/model"
	"github.com/dukerupert/fitletter/internal/store"
)

// UserStore is the credential store used by Manager.
type UserStore interface {
	Create(email, name, passwordHash string, createdAt time.Time) (*model.User, error)
	GetByID(id int64) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	UpdatePasswordHash(id int64, passwordHash string) error
	Delete(id int64) error
}

type SessionStore interface {
	Create(token string, userID int64, expiresAt, createdAt time.Time) (*model.Session, error)
	GetValid(token string, now time.Time) (*model.Session, error)
	Delete(token string) error
	DeleteByUserID(userID int64) error
	DeleteExpired(now time.Time) (int64, error)
}

type ResetStore interface {
	Create(token string, userID int64, expiresAt, now time.Time) (*model.PasswordReset, error)
	GetUsable(token string, now time.Time) (*model.PasswordReset, error)
	MarkUsed(token string, at time.Time) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

// Stores groups the stores a Manager works against.
type Stores struct {
	Users    UserStore
	Sessions SessionStore
	Resets   ResetStore
}

// Backend hands out stores, either directly or bound to one transaction.
type Backend interface {
	Stores() Stores
	InTx(ctx context.Context, fn func(Stores) error) error
}

// SQLBackend is the Backend over the SQLite stores.
type SQLBackend struct {
	db     *sql.DB
	stores Stores
}

func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db, stores: sqlStores(db)}
}

func sqlStores(db database.DBTX) Stores {
	return Stores{
		Users:    store.NewUserStore(db),
		Sessions: store.NewSessionStore(db),
		Resets:   store.NewPasswordResetStore(db),
	}
}

func (b *SQLBackend) Stores() Stores { return b.stores }

// InTx runs fn against stores bound to a single transaction. fn must not use
// the non-transactional stores: an in-memory database has one connection.
func (b *SQLBackend) InTx(ctx context.Context, fn func(Stores) error) error {
	return database.WithTx(ctx, b.db, func(tx *sql.Tx) error {
		return fn(sqlStores(tx))
	})
}
