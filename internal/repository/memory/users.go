package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &errors.ErrConflict{Code: errors.CodeDuplicateEmail, Message: "email already registered"}
		}
	}
	r.s.track(&user.ID)
	now := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	c := *u
	return &c, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user", ID: email}
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.UserStatus, reason *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if u.Status != expected {
		return false, nil
	}
	u.Status = next
	u.RejectionReason = reason
	u.UpdatedAt = r.s.now()
	return true, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*domain.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.BusinessName), search) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	newestFirst(r.s, out, func(u *domain.User) uuid.UUID { return u.ID })
	return repository.Window(out, filter.Page), len(out), nil
}

func (r *userRepository) CountByRoleAndStatus(ctx context.Context) ([]repository.RoleStatusCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[repository.RoleStatusCount]int)
	for _, u := range r.s.users {
		counts[repository.RoleStatusCount{Role: u.Role, Status: u.Status}]++
	}
	out := make([]repository.RoleStatusCount, 0, len(counts))
	for k, n := range counts {
		k.Count = n
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}
