// Package store is the Postgres persistence gateway behind the importer.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// TransactionRecord is one imported transaction row.
type TransactionRecord struct {
	bun.BaseModel `bun:"table:transactions"`

	ID          string          `bun:",pk"`
	UserID      string          `bun:",notnull"`
	Description string          `bun:"type:text"`
	Amount      decimal.Decimal `bun:"type:numeric(14,2)"`
	Date        time.Time       `bun:",notnull"`
	Type        string          `bun:",notnull"`
	Subtype     string
	SourceID    string
	CategoryID  string
	Fingerprint string `bun:",notnull"`
	CreatedAt   time.Time
}

// AllocationRecord is one responsibility share of a transaction. Rows are
// owned by their transaction and created in the same database transaction.
type AllocationRecord struct {
	bun.BaseModel `bun:"table:transaction_allocations"`

	ID            string          `bun:",pk"`
	TransactionID string          `bun:",notnull"`
	ResponsibleID string          `bun:",notnull"`
	Percentage    decimal.Decimal `bun:"type:numeric(5,2)"`
}

// CategoryRecord, ResponsibleRecord and SourceRecord are owned by the
// wider application's CRUD paths; the importer only resolves them.
type CategoryRecord struct {
	bun.BaseModel `bun:"table:categories"`

	ID     string `bun:",pk"`
	UserID string `bun:",notnull"`
	Name   string
}

type ResponsibleRecord struct {
	bun.BaseModel `bun:"table:responsibles"`

	ID     string `bun:",pk"`
	UserID string `bun:",notnull"`
	Name   string
}

type SourceRecord struct {
	bun.BaseModel `bun:"table:sources"`

	ID     string `bun:",pk"`
	UserID string `bun:",notnull"`
	Name   string
}

// Store implements the importer's TransactionStore and Lookup interfaces
// over Postgres.
type Store struct {
	db *bun.DB
}

// NewPostgres opens a bun client from a DSN and verifies connectivity.
func NewPostgres(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database_url is not set")
	}
	pgconn := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(pgconn)
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return New(bun.NewDB(sqldb, pgdialect.New())), nil
}

// New wraps an existing bun client.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the importer-owned tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	modelsToCreate := []interface{}{
		(*TransactionRecord)(nil),
		(*AllocationRecord)(nil),
		(*CategoryRecord)(nil),
		(*ResponsibleRecord)(nil),
		(*SourceRecord)(nil),
	}
	for _, m := range modelsToCreate {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	_, err := s.db.NewCreateIndex().
		Model((*TransactionRecord)(nil)).
		Index("transactions_user_fingerprint_idx").
		IfNotExists().
		Column("user_id", "fingerprint").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("creating fingerprint index: %w", err)
	}
	return nil
}

// ExistsFingerprint reports whether the user already has a transaction
// with the given duplicate key.
func (s *Store) ExistsFingerprint(ctx context.Context, userID, fp string) (bool, error) {
	return s.db.NewSelect().
		Model((*TransactionRecord)(nil)).
		Where("user_id = ?", userID).
		Where("fingerprint = ?", fp).
		Exists(ctx)
}

// CreateTransaction persists one transaction and its allocation rows
// atomically and returns the new id. Each call is its own transaction
// boundary: a failure here never rolls back previously created rows.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) (string, error) {
	record := &TransactionRecord{
		ID:          uuid.NewString(),
		UserID:      tx.UserID,
		Description: tx.Description,
		Amount:      tx.Amount,
		Date:        tx.Date,
		Type:        string(tx.Type),
		Subtype:     tx.Subtype,
		SourceID:    tx.SourceID,
		CategoryID:  tx.CategoryID,
		Fingerprint: tx.Fingerprint,
		CreatedAt:   time.Now(),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, dbtx bun.Tx) error {
		if _, err := dbtx.NewInsert().Model(record).Exec(ctx); err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}
		if len(tx.Allocations) == 0 {
			return nil
		}
		allocations := make([]AllocationRecord, 0, len(tx.Allocations))
		for _, a := range tx.Allocations {
			allocations = append(allocations, AllocationRecord{
				ID:            uuid.NewString(),
				TransactionID: record.ID,
				ResponsibleID: a.ResponsibleID,
				Percentage:    a.Percentage,
			})
		}
		if _, err := dbtx.NewInsert().Model(&allocations).Exec(ctx); err != nil {
			return fmt.Errorf("inserting allocations: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) CategoryExists(ctx context.Context, id, userID string) (bool, error) {
	return s.db.NewSelect().
		Model((*CategoryRecord)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exists(ctx)
}

func (s *Store) ResponsibleExists(ctx context.Context, id, userID string) (bool, error) {
	return s.db.NewSelect().
		Model((*ResponsibleRecord)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exists(ctx)
}

func (s *Store) SourceExists(ctx context.Context, id, userID string) (bool, error) {
	return s.db.NewSelect().
		Model((*SourceRecord)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exists(ctx)
}
