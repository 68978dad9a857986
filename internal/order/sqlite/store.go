// Package sqlite provides a SQLite-backed implementation of order.Store.
//
// The uniqueness rules the reconciler relies on live in the schema, not in
// application code: the order id is the primary key (order creation is
// idempotent under webhook redelivery) and (order_id, event_id) is unique in
// the events table (event append is idempotent). WAL mode is enabled so the
// admin reading orders never blocks webhook writes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-go/checkout/internal/order"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps the storefront a single static binary.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    -- Order id minted at session creation. PRIMARY KEY makes creation
    -- idempotent: a redelivered "completed" event hits the constraint.
    id          TEXT PRIMARY KEY,

    -- Lifecycle state: pending, paid or failed.
    status      TEXT NOT NULL,

    -- Wall-clock creation time (RFC3339 stored as TEXT, SQLite idiom).
    created_at  TEXT NOT NULL,

    -- Set once, when the order first turns paid.
    paid_at     TEXT,

    -- JSON snapshot of the order taken from the checkout session.
    payload     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_events (
    -- Surrogate key preserves append order within an order.
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    order_id        TEXT NOT NULL REFERENCES orders(id),

    -- Provider event id. Unique per order: the ledger is the duplicate
    -- suppression record for webhook retries.
    event_id        TEXT NOT NULL,

    type            TEXT NOT NULL,
    payment_status  TEXT NOT NULL DEFAULT '',
    message         TEXT NOT NULL DEFAULT '',
    occurred_at     TEXT NOT NULL,

    UNIQUE(order_id, event_id)
);
`

// Store is the SQLite implementation of order.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	store, err := sqlite.Open("./data/orders.db")
func Open(path string) (*Store, error) {
	// The pure-Go driver takes pragmas as query parameters. WAL enables
	// concurrent readers, foreign_keys enforces the events->orders link,
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("sqlite: encode order %q: %w", o.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	const insertOrder = `
		INSERT INTO orders (id, status, created_at, paid_at, payload)
		VALUES (?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insertOrder,
		o.ID,
		string(o.Status),
		formatTime(o.CreatedAt),
		nullableTime(o.PaidAt),
		string(payload),
	)
	if isUniqueViolation(err, "orders") {
		return order.ErrDuplicateOrder
	}
	if err != nil {
		return fmt.Errorf("sqlite: insert order %q: %w", o.ID, err)
	}

	for _, ev := range o.Events {
		if err := insertEvent(ctx, tx, o.ID, ev); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit order %q: %w", o.ID, err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, id string) (*order.Order, error) {
	const q = `SELECT status, paid_at, payload FROM orders WHERE id = ?`

	var status, payload string
	var paidAt sql.NullString
	err := s.db.QueryRowContext(ctx, q, id).Scan(&status, &paidAt, &payload)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find order %q: %w", id, err)
	}

	var o order.Order
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		return nil, fmt.Errorf("sqlite: decode order %q: %w", id, err)
	}

	// Status, paid_at and the ledger are the mutable parts; the columns
	// are authoritative over whatever the payload snapshot says.
	o.Status = order.Status(status)
	o.PaidAt = nil
	if paidAt.Valid {
		t, err := parseTime(paidAt.String)
		if err != nil {
			return nil, err
		}
		o.PaidAt = &t
	}

	events, err := s.loadEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Events = events

	return &o, nil
}

func (s *Store) AppendEventIfAbsent(ctx context.Context, id string, ev order.Event, status order.Status) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return order.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite: find order %q: %w", id, err)
	}

	if err := insertEvent(ctx, tx, id, ev); err != nil {
		return err
	}
	if err := updateStatus(ctx, tx, id, status, ev.OccurredAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit event %q: %w", ev.ID, err)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status order.Status) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if err := updateStatus(ctx, tx, id, status, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, orderID string, ev order.Event) error {
	const q = `
		INSERT INTO order_events (order_id, event_id, type, payment_status, message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, q,
		orderID,
		ev.ID,
		ev.Type,
		ev.PaymentStatus,
		ev.Message,
		formatTime(ev.OccurredAt),
	)
	if isUniqueViolation(err, "order_events") {
		return order.ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("sqlite: insert event %q for order %q: %w", ev.ID, orderID, err)
	}
	return nil
}

func updateStatus(ctx context.Context, tx *sql.Tx, id string, status order.Status, at time.Time) error {
	// paid_at is written once, the first time the order turns paid.
	const q = `
		UPDATE orders
		SET    status = ?,
		       paid_at = CASE WHEN ? = 'paid' AND paid_at IS NULL THEN ? ELSE paid_at END
		WHERE  id = ?`

	res, err := tx.ExecContext(ctx, q, string(status), string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("sqlite: set status for order %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s *Store) loadEvents(ctx context.Context, orderID string) ([]order.Event, error) {
	const q = `
		SELECT event_id, type, payment_status, message, occurred_at
		FROM   order_events
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load events for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var events []order.Event
	for rows.Next() {
		var ev order.Event
		var occurredAt string
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.PaymentStatus, &ev.Message, &occurredAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan event: %w", err)
		}
		ev.OccurredAt, err = parseTime(occurredAt)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given table. The pure-Go driver exposes no typed error for this, so
// the message text is matched; it is stable across driver versions.
func isUniqueViolation(err error, table string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+table+".")
}
