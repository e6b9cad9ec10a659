package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const transactionColumns = "id, amount_cents, description, occurred_at, category, created_at, updated_at"

type SQLiteRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

type transactionRow struct {
	ID          string `db:"id"`
	AmountCents int64  `db:"amount_cents"`
	Description string `db:"description"`
	OccurredAt  string `db:"occurred_at"`
	Category    string `db:"category"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type monthlyRow struct {
	Year         int   `db:"year"`
	Month        int   `db:"month"`
	IncomeCents  int64 `db:"income_cents"`
	ExpenseCents int64 `db:"expense_cents"`
}

type categoryRow struct {
	Category   string `db:"category"`
	TotalCents int64  `db:"total_cents"`
}

type totalsRow struct {
	IncomeCents  int64 `db:"income_cents"`
	ExpenseCents int64 `db:"expense_cents"`
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies the embedded migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newSQLiteRepository(db), nil
}

func newSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.timestamp()
	t.ID = uuid.NewString()
	t.Date = t.Date.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Amount.Cents, t.Description, core.FormatTimestamp(t.Date), string(t.Category),
		core.FormatTimestamp(now), core.FormatTimestamp(now))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	var row transactionRow
	err := r.db.GetContext(ctx, &row, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return row.toCore()
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	var rows []transactionRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY occurred_at DESC, created_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rowsToCore(rows)
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]core.Transaction, error) {
	var rows []transactionRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY occurred_at DESC, created_at DESC, id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	return rowsToCore(rows)
}

// Update writes only the fields present in p, so concurrent edits of
// different fields both persist.
func (r *SQLiteRepository) Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	sets := []string{"updated_at = ?"}
	args := []any{core.FormatTimestamp(r.timestamp())}
	if p.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, p.Amount.Cents)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, strings.TrimSpace(*p.Description))
	}
	if p.Date != nil {
		sets = append(sets, "occurred_at = ?")
		args = append(args, core.FormatTimestamp(*p.Date))
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*p.Category))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MonthlyTotals(ctx context.Context) ([]core.MonthlyPoint, error) {
	var rows []monthlyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT CAST(strftime('%Y', occurred_at) AS INTEGER) AS year,
		       CAST(strftime('%m', occurred_at) AS INTEGER) AS month,
		       COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0) AS income_cents,
		       COALESCE(SUM(CASE WHEN amount_cents < 0 THEN amount_cents ELSE 0 END), 0) AS expense_cents
		FROM transactions
		GROUP BY year, month
		ORDER BY year ASC, month ASC`)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	points := make([]core.MonthlyPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, core.MonthlyPoint{
			Year:    row.Year,
			Month:   row.Month,
			Income:  core.NewMoney(row.IncomeCents),
			Expense: core.NewMoney(row.ExpenseCents),
		})
	}
	return points, nil
}

func (r *SQLiteRepository) CategoryExpenses(ctx context.Context) ([]core.CategoryAmount, error) {
	var rows []categoryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT category, SUM(-amount_cents) AS total_cents
		FROM transactions
		WHERE amount_cents < 0
		GROUP BY category
		ORDER BY total_cents DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("category expenses: %w", err)
	}

	out := make([]core.CategoryAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategoryAmount{
			Category: core.Category(row.Category),
			Amount:   core.NewMoney(row.TotalCents),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) Totals(ctx context.Context) (core.Totals, error) {
	var row totalsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0) AS income_cents,
		       COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0) AS expense_cents
		FROM transactions`)
	if err != nil {
		return core.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return core.Totals{
		Income:   core.NewMoney(row.IncomeCents),
		Expenses: core.NewMoney(row.ExpenseCents),
	}, nil
}

// timestamp is truncated to what the TEXT columns keep.
func (r *SQLiteRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (row transactionRow) toCore() (core.Transaction, error) {
	date, err := time.Parse(time.RFC3339Nano, row.OccurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at of %s: %w", row.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at of %s: %w", row.ID, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at of %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Amount:      core.NewMoney(row.AmountCents),
		Description: row.Description,
		Date:        date.UTC(),
		Category:    core.Category(row.Category),
		CreatedAt:   created.UTC(),
		UpdatedAt:   updated.UTC(),
	}, nil
}

func rowsToCore(rows []transactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
