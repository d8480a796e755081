package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mkarel/portfolio-api/internal/model"
	q "github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
)

// fakeUserStore is an in-memory UserStore mirroring the repository
// contract, including email uniqueness (exact, case-sensitive match).
type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}}
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByVerificationToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.VerificationToken == token {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByResetToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.ResetToken == token {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.TrimSpace(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) Update(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// mutate applies fn to a stored user directly, bypassing the service. Used
// to simulate conditions like an already-expired reset token.
func (s *fakeUserStore) mutate(id uint64, fn func(*model.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	fn(&u)
	s.users[id] = u
}

// fakeTestimonialStore is an in-memory TestimonialStore.
type fakeTestimonialStore struct {
	mu     sync.Mutex
	nextID uint64
	items  map[uint64]model.Testimonial
}

func newFakeTestimonialStore() *fakeTestimonialStore {
	return &fakeTestimonialStore{items: map[uint64]model.Testimonial{}}
}

func (s *fakeTestimonialStore) FindByID(_ context.Context, id uint64) (model.Testimonial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.items[id]; ok {
		return t, nil
	}
	return model.Testimonial{}, repository.ErrNotFound
}

func (s *fakeTestimonialStore) ListApproved(_ context.Context) ([]model.Testimonial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Testimonial
	for _, t := range s.items {
		if t.IsApproved {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTestimonialStore) ListAll(_ context.Context) ([]model.Testimonial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Testimonial
	for _, t := range s.items {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTestimonialStore) Create(_ context.Context, t model.Testimonial) (model.Testimonial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	s.items[t.ID] = t
	return t, nil
}

func (s *fakeTestimonialStore) Update(_ context.Context, t model.Testimonial) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	s.items[t.ID] = t
	return nil
}

func (s *fakeTestimonialStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// recordingAuditSink captures published audit events for assertions.
type recordingAuditSink struct {
	mu     sync.Mutex
	events []q.AuditEvent
}

func (s *recordingAuditSink) Publish(_ context.Context, ev q.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingAuditSink) all() []q.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]q.AuditEvent(nil), s.events...)
}
