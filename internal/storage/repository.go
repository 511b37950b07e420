package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bizdash/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository is the record store backed by a local SQLite file.
// Monetary columns are TEXT and are coerced to decimals on read.
type SQLiteRepository struct {
	db *sql.DB
}

var _ RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// rowDecoder converts raw TEXT columns into typed values, keeping the first
// error so a scan function can decode every column and check once.
type rowDecoder struct {
	err error
}

func (d *rowDecoder) fail(col string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("decode %s: %w", col, err)
	}
}

func (d *rowDecoder) id(col, s string) uuid.UUID {
	v, err := uuid.Parse(s)
	if err != nil {
		d.fail(col, err)
	}
	return v
}

func (d *rowDecoder) amount(col, s string) decimal.Decimal {
	v, err := core.ParseAmount(s)
	if err != nil {
		d.fail(col, err)
	}
	return v
}

func (d *rowDecoder) timestamp(col, s string) time.Time {
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		d.fail(col, err)
	}
	return v
}

func (d *rowDecoder) optTime(col string, s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := d.timestamp(col, s.String)
	return &v
}

func (d *rowDecoder) date(col, s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	v, err := core.ParseDate(s)
	if err != nil {
		d.fail(col, err)
	}
	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// expectOne maps a zero-row write to ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
