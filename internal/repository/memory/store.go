package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
)

// Store keeps every entity in process memory. One mutex guards all maps so each
// repository method, including settlement and payout completion, is atomic.
type Store struct {
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time

	seq  int64
	rank map[uuid.UUID]int64

	users         map[uuid.UUID]*domain.User
	categories    map[uuid.UUID]*domain.Category
	products      map[uuid.UUID]*domain.Product
	enquiries     map[uuid.UUID]*domain.ProductEnquiry
	links         map[uuid.UUID]*domain.AffiliateLink
	orders        map[uuid.UUID]*domain.Order
	wallets       map[uuid.UUID]*domain.Wallet // keyed by seller id
	transactions  []*domain.WalletTransaction
	payouts       map[uuid.UUID]*domain.Payout
	shops         map[uuid.UUID]*domain.SellerShop // keyed by seller id
	coupons       map[uuid.UUID]*domain.Coupon
	notifications map[uuid.UUID]*domain.Notification
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		rank:          make(map[uuid.UUID]int64),
		users:         make(map[uuid.UUID]*domain.User),
		categories:    make(map[uuid.UUID]*domain.Category),
		products:      make(map[uuid.UUID]*domain.Product),
		enquiries:     make(map[uuid.UUID]*domain.ProductEnquiry),
		links:         make(map[uuid.UUID]*domain.AffiliateLink),
		orders:        make(map[uuid.UUID]*domain.Order),
		wallets:       make(map[uuid.UUID]*domain.Wallet),
		payouts:       make(map[uuid.UUID]*domain.Payout),
		shops:         make(map[uuid.UUID]*domain.SellerShop),
		coupons:       make(map[uuid.UUID]*domain.Coupon),
		notifications: make(map[uuid.UUID]*domain.Notification),
	}
}

// NewRepositories wires every repository to one shared store
func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		User:          &userRepository{s: store},
		Category:      &categoryRepository{s: store},
		Product:       &productRepository{s: store},
		Enquiry:       &enquiryRepository{s: store},
		AffiliateLink: &affiliateLinkRepository{s: store},
		Order:         &orderRepository{s: store},
		Settlement:    &settlementRepository{s: store},
		Wallet:        &walletRepository{s: store},
		Payout:        &payoutRepository{s: store},
		Shop:          &shopRepository{s: store},
		Coupon:        &couponRepository{s: store},
		Notification:  &notificationRepository{s: store},
	}
}

// track assigns an id when missing and records insertion order; callers hold mu
func (s *Store) track(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	s.seq++
	s.rank[*id] = s.seq
}

// newestFirst sorts by insertion order, most recent first; callers hold mu
func newestFirst[T any](s *Store, items []T, id func(T) uuid.UUID) {
	sort.SliceStable(items, func(i, j int) bool {
		return s.rank[id(items[i])] > s.rank[id(items[j])]
	})
}

func cloneUUIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}
