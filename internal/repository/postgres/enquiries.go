package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type enquiryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnquiryRepository creates a new product enquiry repository
func NewEnquiryRepository(db *sql.DB, logger *zap.Logger) *enquiryRepository {
	return &enquiryRepository{
		db:     db,
		logger: logger,
	}
}

const enquiryColumns = `id, seller_id, product_id, name, description, category_id, suggested_price, message,
	status, admin_feedback, approved_product_id, resolved_at, created_at, updated_at`

func scanEnquiry(row rowScanner) (*domain.ProductEnquiry, error) {
	var e domain.ProductEnquiry
	var productID, approvedProductID uuid.NullUUID
	var adminFeedback sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(
		&e.ID,
		&e.SellerID,
		&productID,
		&e.Name,
		&e.Description,
		&e.CategoryID,
		&e.SuggestedPrice,
		&e.Message,
		&e.Status,
		&adminFeedback,
		&approvedProductID,
		&resolvedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ProductID = uuidPtr(productID)
	e.ApprovedProductID = uuidPtr(approvedProductID)
	e.AdminFeedback = stringPtr(adminFeedback)
	e.ResolvedAt = timePtr(resolvedAt)
	return &e, nil
}

func (r *enquiryRepository) Create(ctx context.Context, enquiry *domain.ProductEnquiry) error {
	query := `
		INSERT INTO product_enquiries (` + enquiryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now().UTC()
	if enquiry.ID == uuid.Nil {
		enquiry.ID = uuid.New()
	}
	if enquiry.CreatedAt.IsZero() {
		enquiry.CreatedAt = now
	}
	enquiry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		enquiry.ID,
		enquiry.SellerID,
		nullUUID(enquiry.ProductID),
		enquiry.Name,
		enquiry.Description,
		enquiry.CategoryID,
		enquiry.SuggestedPrice,
		enquiry.Message,
		enquiry.Status,
		nullString(enquiry.AdminFeedback),
		nullUUID(enquiry.ApprovedProductID),
		nullTime(enquiry.ResolvedAt),
		enquiry.CreatedAt,
		enquiry.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateEnquiry, Message: "an enquiry for this product already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to create enquiry", zap.Error(err))
		return err
	}
	return nil
}

func (r *enquiryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductEnquiry, error) {
	query := `SELECT ` + enquiryColumns + ` FROM product_enquiries WHERE id = $1`

	e, err := scanEnquiry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "enquiry", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get enquiry by ID", zap.Error(err))
		return nil, err
	}
	return e, nil
}

func (r *enquiryRepository) ExistsForSellerProduct(ctx context.Context, sellerID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM product_enquiries WHERE seller_id = $1 AND product_id = $2)`,
		sellerID, productID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check enquiry existence", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *enquiryRepository) Resolve(ctx context.Context, res repository.EnquiryResolution) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status domain.EnquiryStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM product_enquiries WHERE id = $1 FOR UPDATE`, res.EnquiryID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, &errors.ErrNotFound{Resource: "enquiry", ID: res.EnquiryID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to lock enquiry", zap.Error(err))
		return false, err
	}
	if status != domain.EnquiryStatusPending {
		return false, nil
	}

	if res.NewProduct != nil {
		if err := insertProduct(ctx, tx, res.NewProduct); err != nil {
			return false, err
		}
		id := res.NewProduct.ID
		res.ApprovedProductID = &id
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE product_enquiries
		SET status = $2, admin_feedback = $3, approved_product_id = $4, resolved_at = $5, updated_at = $5
		WHERE id = $1
	`, res.EnquiryID, res.Status, nullString(res.Feedback), nullUUID(res.ApprovedProductID), res.ResolvedAt)
	if err != nil {
		r.logger.Error("Failed to resolve enquiry", zap.Error(err), zap.String("enquiry_id", res.EnquiryID.String()))
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

func (r *enquiryRepository) List(ctx context.Context, filter repository.EnquiryFilter) ([]*domain.ProductEnquiry, int, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		w.add("seller_id = ?", *filter.SellerID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_enquiries`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count enquiries", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + enquiryColumns + ` FROM product_enquiries` + w.String() + ` ORDER BY created_at DESC`
	if filter.Page.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Page.Limit) + ` OFFSET ` + w.next(filter.Page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list enquiries", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var enquiries []*domain.ProductEnquiry
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		enquiries = append(enquiries, e)
	}
	return enquiries, total, rows.Err()
}
