package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"korobochka/internal/tasks"
)

// Primary is the structured store: a sqlite database with a tasks table
// keyed by id and a meta key/value table used for one-shot flags.
type Primary struct {
	db *sql.DB
}

// saveChunk bounds how many rows go into one transaction during a
// full-replace save; the transaction boundary is the yield point, it
// carries no meaning across chunks.
const saveChunk = 200

func OpenPrimary(dbPath string) (*Primary, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	p := &Primary{db: db}
	if err := p.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Primary) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Primary) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	text TEXT NOT NULL,
	category INTEGER NOT NULL DEFAULT 0,
	subcategory TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 1,
	status_changed_at INTEGER NOT NULL DEFAULT 0,
	completed_at INTEGER NOT NULL DEFAULT 0,
	completed_date TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	_, err := p.db.Exec(ddl)
	return err
}

// LoadAll reads every task row ordered by id.
func (p *Primary) LoadAll() ([]tasks.Task, error) {
	rows, err := p.db.Query(`SELECT id, text, category, subcategory, completed, active, status_changed_at, completed_at, completed_date, duration FROM tasks ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []tasks.Task
	for rows.Next() {
		var t tasks.Task
		var completedInt, activeInt int
		if err := rows.Scan(&t.ID, &t.Text, &t.Category, &t.Subcategory, &completedInt, &activeInt, &t.StatusChangedAt, &t.CompletedAt, &t.CompletedDate, &t.Duration); err != nil {
			return nil, err
		}
		t.Completed = completedInt == 1
		t.Active = activeInt == 1
		list = append(list, t)
	}
	return list, rows.Err()
}

// ReplaceAll clears the table and writes the whole collection back in
// bounded chunks, one transaction per chunk.
func (p *Primary) ReplaceAll(list []tasks.Task) error {
	if _, err := p.db.Exec(`DELETE FROM tasks;`); err != nil {
		return err
	}
	for start := 0; start < len(list); start += saveChunk {
		end := start + saveChunk
		if end > len(list) {
			end = len(list)
		}
		if err := p.insertChunk(list[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Primary) insertChunk(chunk []tasks.Task) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (id, text, category, subcategory, completed, active, status_changed_at, completed_at, completed_date, duration) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, t := range chunk {
		if _, err := stmt.Exec(t.ID, t.Text, t.Category, t.Subcategory, boolInt(t.Completed), boolInt(t.Active), t.StatusChangedAt, t.CompletedAt, t.CompletedDate, t.Duration); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Count reports how many task rows exist; the migration check uses it.
func (p *Primary) Count() (int, error) {
	var n int
	err := p.db.QueryRow(`SELECT COUNT(*) FROM tasks;`).Scan(&n)
	return n, err
}

func (p *Primary) GetMeta(key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(`SELECT value FROM meta WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *Primary) SetMeta(key, value string) error {
	_, err := p.db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, value)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
