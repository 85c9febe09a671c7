package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"valuecards/internal/fault"
	"valuecards/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path and
// seeds the default values catalog.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS values_master (
		id          TEXT PRIMARY KEY,
		label       TEXT NOT NULL,
		description TEXT,
		is_default  INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                   TEXT PRIMARY KEY,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL,
		slug                 TEXT UNIQUE,
		user_name            TEXT,
		user_email           TEXT,
		completed_at         TEXT,
		reflection_responses TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_slug ON sessions(slug);

	CREATE TABLE IF NOT EXISTS session_values (
		id                   TEXT PRIMARY KEY,
		session_id           TEXT NOT NULL REFERENCES sessions(id),
		value_master_id      TEXT REFERENCES values_master(id),
		custom_label         TEXT,
		custom_description   TEXT,
		description_override TEXT,
		priority             TEXT NOT NULL DEFAULT 'unsorted',
		is_core              INTEGER NOT NULL DEFAULT 0,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_session_values_session ON session_values(session_id);
	CREATE INDEX IF NOT EXISTS idx_session_values_priority ON session_values(session_id, priority);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	for _, v := range defaultDeck {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO values_master (id, label, description, is_default) VALUES (?, ?, ?, 1)`,
			v.id, v.label, v.desc)
		if err != nil {
			return fmt.Errorf("seed %s: %w", v.id, err)
		}
	}

	return nil
}

// pfail tags a store failure with the persistence sentinel so callers can
// classify it with errors.Is.
func pfail(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, fault.ErrPersistence, err)
}

func (s *SQLiteStore) InitSession(ctx context.Context) (*model.Session, []model.Selection, error) {
	now := time.Now().UTC()
	ts := now.Format(time.RFC3339)
	sessionID := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, pfail("begin init", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		sessionID, ts, ts)
	if err != nil {
		return nil, nil, pfail("insert session", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, label, description, is_default FROM values_master WHERE is_default = 1 ORDER BY id`)
	if err != nil {
		return nil, nil, pfail("fetch catalog", err)
	}
	var catalog []model.ValueDefinition
	for rows.Next() {
		var v model.ValueDefinition
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Label, &desc, &v.IsDefault); err != nil {
			rows.Close()
			return nil, nil, pfail("scan catalog", err)
		}
		if desc.Valid {
			v.Description = &desc.String
		}
		catalog = append(catalog, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, pfail("fetch catalog", err)
	}

	selections := make([]model.Selection, 0, len(catalog))
	for _, v := range catalog {
		sel := model.Selection{
			ID:        s.newID(),
			SessionID: sessionID,
			ValueID:   &v.ID,
			Priority:  model.PriorityUnsorted,
			CreatedAt: now,
			UpdatedAt: now,
			Catalog:   &v,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_values (id, session_id, value_master_id, priority, is_core, created_at, updated_at)
			 VALUES (?, ?, ?, 'unsorted', 0, ?, ?)`,
			sel.ID, sessionID, v.ID, ts, ts)
		if err != nil {
			return nil, nil, pfail("insert selection", err)
		}
		selections = append(selections, sel)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, pfail("commit init", err)
	}

	session := &model.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now}
	return session, selections, nil
}

func (s *SQLiteStore) Session(ctx context.Context, id string) (*model.Session, error) {
	return s.sessionWhere(ctx, "id = ?", id)
}

func (s *SQLiteStore) SessionBySlug(ctx context.Context, slug string) (*model.Session, error) {
	return s.sessionWhere(ctx, "slug = ?", slug)
}

func (s *SQLiteStore) sessionWhere(ctx context.Context, cond string, arg string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, slug, user_name, user_email, completed_at, reflection_responses
		 FROM sessions WHERE `+cond, arg)

	var sess model.Session
	var createdAt, updatedAt string
	var slug, name, email, completedAt, reflections sql.NullString
	err := row.Scan(&sess.ID, &createdAt, &updatedAt, &slug, &name, &email, &completedAt, &reflections)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", arg, fault.ErrNotFound)
	}
	if err != nil {
		return nil, pfail("fetch session", err)
	}

	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if slug.Valid {
		sess.Slug = &slug.String
	}
	if name.Valid {
		sess.UserName = &name.String
	}
	if email.Valid {
		sess.UserEmail = &email.String
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		sess.CompletedAt = &t
	}
	if reflections.Valid && reflections.String != "" {
		json.Unmarshal([]byte(reflections.String), &sess.Reflections)
	}
	return &sess, nil
}

const selectionColumns = `
	sv.id, sv.session_id, sv.value_master_id, sv.custom_label, sv.custom_description,
	sv.description_override, sv.priority, sv.is_core, sv.created_at, sv.updated_at,
	vm.label, vm.description, vm.is_default`

func (s *SQLiteStore) Selections(ctx context.Context, sessionID string) ([]model.Selection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectionColumns+`
		 FROM session_values sv
		 LEFT JOIN values_master vm ON vm.id = sv.value_master_id
		 WHERE sv.session_id = ?
		 ORDER BY sv.created_at, sv.id`, sessionID)
	if err != nil {
		return nil, pfail("list selections", err)
	}
	defer rows.Close()

	var selections []model.Selection
	for rows.Next() {
		sel, err := scanSelection(rows)
		if err != nil {
			return nil, pfail("scan selection", err)
		}
		selections = append(selections, sel)
	}
	return selections, rows.Err()
}

func (s *SQLiteStore) Selection(ctx context.Context, id string) (*model.Selection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectionColumns+`
		 FROM session_values sv
		 LEFT JOIN values_master vm ON vm.id = sv.value_master_id
		 WHERE sv.id = ?`, id)

	sel, err := scanSelection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("selection %s: %w", id, fault.ErrNotFound)
	}
	if err != nil {
		return nil, pfail("fetch selection", err)
	}
	return &sel, nil
}

func (s *SQLiteStore) UpdatePriority(ctx context.Context, id string, p model.Priority, clearCore bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_values
		 SET priority = ?, is_core = CASE WHEN ? THEN 0 ELSE is_core END, updated_at = ?
		 WHERE id = ?`,
		string(p), clearCore, now, id)
	if err != nil {
		return pfail("update priority", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("selection %s: %w", id, fault.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) UpdateCore(ctx context.Context, id string, isCore bool, override *string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	if override == nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE session_values SET is_core = ?, updated_at = ? WHERE id = ?`,
			isCore, now, id)
	} else {
		var stored sql.NullString
		if *override != "" {
			stored = sql.NullString{String: *override, Valid: true}
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE session_values SET is_core = ?, description_override = ?, updated_at = ? WHERE id = ?`,
			isCore, stored, now, id)
	}
	if err != nil {
		return pfail("update core", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("selection %s: %w", id, fault.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) InsertCustom(ctx context.Context, sessionID, label string, description *string) (*model.Selection, error) {
	now := time.Now().UTC()
	ts := now.Format(time.RFC3339)
	id := s.newID()

	var desc sql.NullString
	if description != nil && *description != "" {
		desc = sql.NullString{String: *description, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_values (id, session_id, custom_label, custom_description, priority, is_core, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'high', 0, ?, ?)`,
		id, sessionID, label, desc, ts, ts)
	if err != nil {
		return nil, pfail("insert custom selection", err)
	}

	sel := &model.Selection{
		ID:          id,
		SessionID:   sessionID,
		CustomLabel: &label,
		Priority:    model.PriorityHigh,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if desc.Valid {
		sel.CustomDescription = &desc.String
	}
	return sel, nil
}

func (s *SQLiteStore) Finalize(ctx context.Context, id, slug string, name, email *string) (*model.Session, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions
		 SET slug = ?, completed_at = ?, updated_at = ?,
		     user_name = COALESCE(?, user_name), user_email = COALESCE(?, user_email)
		 WHERE id = ?`,
		slug, now, now, name, email, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("slug %s: %w", slug, ErrSlugTaken)
		}
		return nil, pfail("finalize session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("session %s: %w", id, fault.ErrNotFound)
	}
	return s.Session(ctx, id)
}

func (s *SQLiteStore) SaveReflections(ctx context.Context, slug string, responses map[string]string) error {
	b, err := json.Marshal(responses)
	if err != nil {
		return pfail("encode reflections", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET reflection_responses = ?, updated_at = ? WHERE slug = ?`,
		string(b), now, slug)
	if err != nil {
		return pfail("save reflections", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("slug %s: %w", slug, fault.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Catalog(ctx context.Context, defaultsOnly bool) ([]model.ValueDefinition, error) {
	query := `SELECT id, label, description, is_default FROM values_master`
	if defaultsOnly {
		query += ` WHERE is_default = 1`
	}
	query += ` ORDER BY label`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, pfail("list catalog", err)
	}
	defer rows.Close()

	var defs []model.ValueDefinition
	for rows.Next() {
		var v model.ValueDefinition
		var desc sql.NullString
		if err := rows.Scan(&v.ID, &v.Label, &desc, &v.IsDefault); err != nil {
			return nil, pfail("scan catalog", err)
		}
		if desc.Valid {
			v.Description = &desc.String
		}
		defs = append(defs, v)
	}
	return defs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSelection(row scanner) (model.Selection, error) {
	var sel model.Selection
	var valueID, customLabel, customDesc, override sql.NullString
	var vmLabel, vmDesc sql.NullString
	var vmDefault sql.NullBool
	var priority, createdAt, updatedAt string

	err := row.Scan(
		&sel.ID, &sel.SessionID, &valueID, &customLabel, &customDesc,
		&override, &priority, &sel.IsCore, &createdAt, &updatedAt,
		&vmLabel, &vmDesc, &vmDefault,
	)
	if err != nil {
		return sel, err
	}

	sel.Priority = model.Priority(priority)
	sel.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sel.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if valueID.Valid {
		sel.ValueID = &valueID.String
		def := &model.ValueDefinition{ID: valueID.String, IsDefault: vmDefault.Valid && vmDefault.Bool}
		if vmLabel.Valid {
			def.Label = vmLabel.String
		}
		if vmDesc.Valid {
			def.Description = &vmDesc.String
		}
		sel.Catalog = def
	}
	if customLabel.Valid {
		sel.CustomLabel = &customLabel.String
	}
	if customDesc.Valid {
		sel.CustomDescription = &customDesc.String
	}
	if override.Valid {
		sel.DescriptionOverride = &override.String
	}
	return sel, nil
}
