package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/repo"
)

// memoryStore — ProcessStore и LayoutStore в памяти.
type memoryStore struct {
	mu        sync.Mutex
	processes map[uuid.UUID]domain.Process
	versions  map[uuid.UUID][]domain.ProcessVersion
	layouts   map[uuid.UUID]map[int]domain.ProcessLayout
	failWith  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		processes: make(map[uuid.UUID]domain.Process),
		versions:  make(map[uuid.UUID][]domain.ProcessVersion),
		layouts:   make(map[uuid.UUID]map[int]domain.ProcessLayout),
	}
}

func (s *memoryStore) Create(ctx context.Context, p *domain.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for _, existing := range s.processes {
		if existing.Name == p.Name {
			return repo.ErrAlreadyExists
		}
	}
	p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.processes[p.ID] = *p
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.processes[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *memoryStore) List(ctx context.Context) ([]domain.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []domain.Process
	for _, p := range s.processes {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Process) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *memoryStore) Update(ctx context.Context, p *domain.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes[p.ID]; !ok {
		return repo.ErrNotFound
	}
	for id, existing := range s.processes {
		if id != p.ID && existing.Name == p.Name {
			return repo.ErrAlreadyExists
		}
	}
	s.processes[p.ID] = *p
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.processes, id)
	delete(s.versions, id)
	delete(s.layouts, id)
	return nil
}

func (s *memoryStore) CreateVersion(ctx context.Context, processID uuid.UUID, definition string) (*domain.ProcessVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes[processID]; !ok {
		return nil, repo.ErrNotFound
	}
	v := domain.ProcessVersion{
		ProcessID:  processID,
		Version:    len(s.versions[processID]) + 1,
		Definition: definition,
		CreatedAt:  time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	s.versions[processID] = append(s.versions[processID], v)
	return &v, nil
}

func (s *memoryStore) GetVersion(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.versions[processID]
	if version < 1 || version > len(versions) {
		return nil, repo.ErrNotFound
	}
	v := versions[version-1]
	return &v, nil
}

func (s *memoryStore) GetLatestVersion(ctx context.Context, processID uuid.UUID) (*domain.ProcessVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.versions[processID]
	if len(versions) == 0 {
		return nil, repo.ErrNotFound
	}
	v := versions[len(versions)-1]
	return &v, nil
}

func (s *memoryStore) ListVersions(ctx context.Context, processID uuid.UUID) ([]domain.ProcessVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := slices.Clone(s.versions[processID])
	slices.Reverse(versions)
	return versions, nil
}

// Get реализует LayoutStore.
func (s *memoryStore) Get(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessLayout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layouts[processID][version]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &l, nil
}

func (s *memoryStore) putLayout(l domain.ProcessLayout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layouts[l.ProcessID] == nil {
		s.layouts[l.ProcessID] = make(map[int]domain.ProcessLayout)
	}
	s.layouts[l.ProcessID][l.Version] = l
}

type publishedEvent struct {
	processID uuid.UUID
	version   int
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishVersionCreated(ctx context.Context, processID uuid.UUID, version int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{processID: processID, version: version})
	return nil
}

var errStoreDown = errors.New("store down")

type testServer struct {
	store     *memoryStore
	publisher *fakePublisher
	handler   *Handler
	mux       *http.ServeMux
}

func newTestServer() *testServer {
	store := newMemoryStore()
	publisher := &fakePublisher{}
	h := NewHandler(Config{
		Processes:    store,
		Layouts:      store,
		Publisher:    publisher,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		FireTimes:    3,
		MaxBodyBytes: 4096,
	})
	h.now = func() time.Time { return time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC) }

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testServer{store: store, publisher: publisher, handler: h, mux: mux}
}
