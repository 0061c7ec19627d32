package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type enquiryRepository struct {
	s *Store
}

func (r *enquiryRepository) Create(ctx context.Context, enquiry *domain.ProductEnquiry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if enquiry.ProductID != nil {
		for _, e := range r.s.enquiries {
			if e.SellerID == enquiry.SellerID && e.ProductID != nil && *e.ProductID == *enquiry.ProductID {
				return &errors.ErrConflict{Code: errors.CodeDuplicateEnquiry, Message: "an enquiry for this product already exists"}
			}
		}
	}
	r.s.track(&enquiry.ID)
	now := r.s.now()
	if enquiry.CreatedAt.IsZero() {
		enquiry.CreatedAt = now
	}
	enquiry.UpdatedAt = now
	c := *enquiry
	r.s.enquiries[enquiry.ID] = &c
	return nil
}

func (r *enquiryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductEnquiry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enquiries[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "enquiry", ID: id.String()}
	}
	c := *e
	return &c, nil
}

func (r *enquiryRepository) ExistsForSellerProduct(ctx context.Context, sellerID, productID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.enquiries {
		if e.SellerID == sellerID && e.ProductID != nil && *e.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *enquiryRepository) Resolve(ctx context.Context, res repository.EnquiryResolution) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enquiries[res.EnquiryID]
	if !ok {
		return false, &errors.ErrNotFound{Resource: "enquiry", ID: res.EnquiryID.String()}
	}
	if e.Status != domain.EnquiryStatusPending {
		return false, nil
	}
	if res.NewProduct != nil {
		if err := r.s.insertProduct(res.NewProduct); err != nil {
			return false, err
		}
		id := res.NewProduct.ID
		res.ApprovedProductID = &id
	}
	at := res.ResolvedAt
	e.Status = res.Status
	e.AdminFeedback = res.Feedback
	e.ApprovedProductID = res.ApprovedProductID
	e.ResolvedAt = &at
	e.UpdatedAt = at
	return true, nil
}

func (r *enquiryRepository) List(ctx context.Context, filter repository.EnquiryFilter) ([]*domain.ProductEnquiry, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.ProductEnquiry
	for _, e := range r.s.enquiries {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.SellerID != nil && e.SellerID != *filter.SellerID {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	newestFirst(r.s, out, func(e *domain.ProductEnquiry) uuid.UUID { return e.ID })
	return repository.Window(out, filter.Page), len(out), nil
}
