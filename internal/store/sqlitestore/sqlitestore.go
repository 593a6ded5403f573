// Package sqlitestore keeps todos in a sqlite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	due_date DATE,
	starred BOOLEAN DEFAULT 0,
	is_completed BOOLEAN DEFAULT 0
)`

const selectColumns = `SELECT id, description, due_date, starred, is_completed FROM todos`

// Store is a store.Store over database/sql.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context, q store.Query) ([]model.Item, error) {
	var (
		where []string
		args  []any
	)
	if q.Due != nil {
		if *q.Due {
			where = append(where, "due_date <= ?")
		} else {
			where = append(where, "(due_date > ? OR due_date IS NULL)")
		}
		args = append(args, q.Today.String())
	}
	if q.Complete != nil {
		where = append(where, "is_completed = ?")
		args = append(args, *q.Complete)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return items, nil
}

func (s *Store) Create(ctx context.Context, req model.CreateRequest) (model.Item, error) {
	var due any
	if req.DueDate != nil {
		due = req.DueDate.String()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (description, due_date) VALUES (?, ?)`,
		req.Description, due,
	)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	return s.get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id int64, req model.UpdateRequest) (model.Item, error) {
	var (
		set  []string
		args []any
	)
	if req.IsCompleted != nil {
		set = append(set, "is_completed = ?")
		args = append(args, *req.IsCompleted)
	}
	if req.Starred != nil {
		set = append(set, "starred = ?")
		args = append(args, *req.Starred)
	}
	if len(set) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, `UPDATE todos SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return model.Item{}, fmt.Errorf("update todo %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.Item{}, store.ErrNotFound
		}
	}
	return s.get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) get(ctx context.Context, id int64) (model.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, store.ErrNotFound
	}
	return it, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var (
		it  model.Item
		due sql.NullString
	)
	if err := row.Scan(&it.ID, &it.Description, &due, &it.Starred, &it.IsCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, err
		}
		return model.Item{}, fmt.Errorf("scan todo: %w", err)
	}
	if due.Valid && due.String != "" {
		// DATE columns may come back as full timestamps
		raw := due.String
		if len(raw) > len(model.DateFormat) {
			raw = raw[:len(model.DateFormat)]
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Item{}, fmt.Errorf("corrupted due date value %q: %w", due.String, err)
		}
		it.DueDate = &d
	}
	return it, nil
}
