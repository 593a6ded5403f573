package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// The whole collection lives in memory; every mutation rewrites the file.

// DefaultFileName is used when Open gets a directory.
const DefaultFileName = "todos.json"

type fileData struct {
	NextID int64        `json:"next_id"`
	Todos  []model.Item `json:"todos"`
}

// Store is a store.Store persisted to one JSON file.
type Store struct {
	path string

	mu   sync.Mutex
	data fileData
}

var _ store.Store = (*Store)(nil)

// Open loads path, or starts empty when the file does not exist yet.
func Open(path string) (*Store, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	s := &Store{path: path, data: fileData{NextID: 1}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path is the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read file: %w", err)
	}
	var d fileData
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	// files edited by hand may lack next_id
	for _, it := range d.Todos {
		if it.ID >= d.NextID {
			d.NextID = it.ID + 1
		}
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	s.data = d
	return nil
}

// save must be called with mu held.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, q store.Query) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.data.Todos))
	for _, it := range s.data.Todos {
		if q.Match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, req model.CreateRequest) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := model.Item{
		ID:          s.data.NextID,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	prev := s.data
	s.data.NextID++
	s.data.Todos = append(append([]model.Item(nil), s.data.Todos...), it)
	if err := s.save(); err != nil {
		s.data = prev
		return model.Item{}, err
	}
	return it, nil
}

func (s *Store) Update(ctx context.Context, id int64, req model.UpdateRequest) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Item{}, store.ErrNotFound
	}
	old := s.data.Todos[idx]
	store.Apply(&s.data.Todos[idx], req)
	if err := s.save(); err != nil {
		s.data.Todos[idx] = old
		return model.Item{}, err
	}
	return s.data.Todos[idx], nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return store.ErrNotFound
	}
	prev := s.data.Todos
	todos := make([]model.Item, 0, len(prev)-1)
	todos = append(todos, prev[:idx]...)
	todos = append(todos, prev[idx+1:]...)
	s.data.Todos = todos
	if err := s.save(); err != nil {
		s.data.Todos = prev
		return err
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id int64) int {
	for i, it := range s.data.Todos {
		if it.ID == id {
			return i
		}
	}
	return -1
}
