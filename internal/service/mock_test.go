package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/model"
	"github.com/sakif/roomview/internal/repository"
)

// =========================================================================
// MOCK STORE
// =========================================================================

// mockStore is an in-memory repository.Store. It behaves like the real
// stores for the parts the services depend on: ids and timestamps are
// assigned here, duplicates conflict, and lists are newest first.
type mockStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	models      []model.Model
	annotations []model.Annotation
	nextID      int
	clock       time.Time

	// set to simulate a database failure
	failWith error
	// records the options the service passed to the last List call
	lastOpts repository.ListOptions
}

var _ repository.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users: make(map[string]*model.User),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockStore) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *mockStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockStore) CreateUser(_ context.Context, in model.InsertUser) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if _, taken := m.users[in.Username]; taken {
		return nil, apperror.Conflict("user", in.Username)
	}
	u := &model.User{Username: in.Username, Password: in.Password}
	m.users[in.Username] = u
	return u, nil
}

func (m *mockStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}

func (m *mockStore) CreateModel(_ context.Context, in model.InsertModel) (*model.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	rec := model.Model{
		ID:         m.id(),
		Name:       in.Name,
		FileURL:    in.FileURL,
		FileType:   in.FileType,
		FileSize:   in.FileSize,
		UploadedBy: in.UploadedBy,
		UploadedAt: m.tick(),
	}
	m.models = append(m.models, rec)
	return &rec, nil
}

func (m *mockStore) GetModelByID(_ context.Context, id string) (*model.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.models {
		if m.models[i].ID == id {
			rec := m.models[i]
			return &rec, nil
		}
	}
	return nil, apperror.NotFound("model", id)
}

func (m *mockStore) ListModels(_ context.Context, opts repository.ListOptions) ([]model.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := append([]model.Model(nil), m.models...)
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return page(out, opts), nil
}

func (m *mockStore) CreateAnnotation(_ context.Context, in model.InsertAnnotation) (*model.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	rec := model.Annotation{
		ID:          m.id(),
		RoomID:      in.RoomID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   m.tick(),
	}
	m.annotations = append(m.annotations, rec)
	return &rec, nil
}

func (m *mockStore) GetAnnotationByID(_ context.Context, id string) (*model.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.annotations {
		if m.annotations[i].ID == id {
			rec := m.annotations[i]
			return &rec, nil
		}
	}
	return nil, apperror.NotFound("annotation", id)
}

func (m *mockStore) ListAnnotationsByRoom(_ context.Context, roomID string, opts repository.ListOptions) ([]model.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []model.Annotation
	for _, a := range m.annotations {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, opts), nil
}

func (m *mockStore) Close() error { return nil }

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

var errDatabaseDown = errors.New("database is on fire")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
