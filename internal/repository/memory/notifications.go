package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.track(&n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	c := *n
	r.s.notifications[n.ID] = &c
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page repository.Page) ([]*domain.Notification, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	newestFirst(r.s, out, func(n *domain.Notification) uuid.UUID { return n.ID })
	return repository.Window(out, page), len(out), nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}
