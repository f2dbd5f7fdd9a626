package actionlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the action database to adopt the new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages pending action persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the action database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Append durably records an action. Appending the same action id twice is a
// no-op, so a retried append after a crash cannot duplicate a record.
func (s *Store) Append(ctx context.Context, action Action) error {
	if action.ID == "" {
		return errors.New("action id is empty")
	}
	if action.TargetItemID == "" {
		return errors.New("action target item id is empty")
	}
	if _, ok := ParseKind(string(action.Kind)); !ok {
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}

	payloadJSON, err := json.Marshal(action.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO pending_actions (id, kind, target_item_id, payload_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		action.ID,
		string(action.Kind),
		action.TargetItemID,
		string(payloadJSON),
		action.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

// Remove deletes an action after the gateway confirmed (or terminally
// rejected) the corresponding mutation.
func (s *Store) Remove(ctx context.Context, actionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, actionID)
	if err != nil {
		return fmt.Errorf("remove action: %w", err)
	}
	return nil
}

// ListAll returns every pending action in creation (append) order.
func (s *Store) ListAll(ctx context.Context) ([]Action, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, target_item_id, payload_json, created_at FROM pending_actions ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// ListForItem returns the pending actions targeting one item, oldest first.
func (s *Store) ListForItem(ctx context.Context, itemID string) ([]Action, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, target_item_id, payload_json, created_at FROM pending_actions WHERE target_item_id = ? ORDER BY seq`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions for item: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// Count returns the number of pending actions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending_actions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}

// HasItem reports whether any pending action targets the given item.
func (s *Store) HasItem(ctx context.Context, itemID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM pending_actions WHERE target_item_id = ?`,
		itemID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check item actions: %w", err)
	}
	return count > 0, nil
}

// Clear removes all pending actions.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions`)
	if err != nil {
		return 0, fmt.Errorf("clear actions: %w", err)
	}
	return res.RowsAffected()
}

func scanAction(scanner interface{ Scan(dest ...any) error }) (Action, error) {
	var (
		id         string
		kindStr    string
		targetID   string
		payloadRaw string
		createdRaw string
	)
	if err := scanner.Scan(&id, &kindStr, &targetID, &payloadRaw, &createdRaw); err != nil {
		return Action{}, err
	}

	action := Action{
		ID:           id,
		Kind:         Kind(kindStr),
		TargetItemID: targetID,
	}
	if err := json.Unmarshal([]byte(payloadRaw), &action.Payload); err != nil {
		return Action{}, fmt.Errorf("parse payload for action %s: %w", id, err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		action.CreatedAt = created
	}
	return action, nil
}
