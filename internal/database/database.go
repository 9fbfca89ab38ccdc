package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/entities"
)

// Options tune how the SQLite connection is opened.
type Options struct {
	LogLevel logger.LogLevel
}

// DefaultOptions logs warnings and slow queries only.
func DefaultOptions() Options {
	return Options{LogLevel: logger.Warn}
}

// activeLoanIndexes backs the two lending invariants at the storage layer.
// AutoMigrate cannot express partial indexes, so they are created by hand.
var activeLoanIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrow_records_active_book
		ON borrow_records(book_id) WHERE status = 'borrowed'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrow_records_active_borrower
		ON borrow_records(borrower_kind, borrower_id) WHERE status = 'borrowed'`,
}

type Database struct {
	DB *gorm.DB
}

// DSN builds the connection string for path. Write transactions start with
// BEGIN IMMEDIATE so concurrent writers queue on the busy timeout instead of
// failing on a lock upgrade.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

func NewDatabase(dbPath string, opts Options) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}
	if err := database.Migrate(); err != nil {
		return nil, err
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// Migrate creates or updates all tables and the active-loan indexes.
func (d *Database) Migrate() error {
	err := d.DB.AutoMigrate(
		&entities.Book{},
		&entities.Student{},
		&entities.Teacher{},
		&entities.BorrowRecord{},
		&entities.AuditEvent{},
		&entities.Complaint{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, stmt := range activeLoanIndexes {
		if err := d.DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err was caused by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// activeLoanColumns are the column lists SQLite reports when one of the
// activeLoanIndexes rejects a write.
var activeLoanColumns = []string{
	"borrow_records.book_id",
	"borrow_records.borrower_kind, borrow_records.borrower_id",
}

// IsActiveLoanViolation reports whether err came from one of the active-loan
// indexes. Other unique or primary key collisions on borrow_records are not
// lending conflicts.
func IsActiveLoanViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	msg := sqliteErr.Error()
	for _, cols := range activeLoanColumns {
		if strings.Contains(msg, "UNIQUE constraint failed: "+cols) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
