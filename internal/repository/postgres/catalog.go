package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type categoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB, logger *zap.Logger) *categoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.IsActive,
		category.CreatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateSlug, Message: "category slug already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to create category", zap.Error(err))
		return err
	}
	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var description sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &description, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Description = description.String
	return &c, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT id, name, slug, description, is_active, created_at FROM categories WHERE id = $1`

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "category", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get category by ID", zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	query := `
		SELECT id, name, slug, description, is_active, created_at
		FROM categories
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, name, description, price, stock, sku, category_id, images, affiliate_percentage, status, seller_id, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var description sql.NullString
	var imagesJSON []byte
	var sellerID uuid.NullUUID
	err := row.Scan(
		&p.ID,
		&p.Name,
		&description,
		&p.Price,
		&p.Stock,
		&p.SKU,
		&p.CategoryID,
		&imagesJSON,
		&p.AffiliatePercentage,
		&p.Status,
		&sellerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.SellerID = uuidPtr(sellerID)
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// insertProduct is shared with enquiry approval, which inserts inside its own transaction
func insertProduct(ctx context.Context, q execer, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now().UTC()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if product.Images == nil {
		product.Images = []string{}
	}

	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.SKU,
		product.CategoryID,
		imagesJSON,
		product.AffiliatePercentage,
		product.Status,
		nullUUID(product.SellerID),
		product.CreatedAt,
		product.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateSKU, Message: "sku already exists"}
	}
	return err
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := insertProduct(ctx, r.db, product); err != nil {
		if _, ok := err.(*errors.ErrConflict); !ok {
			r.logger.Error("Failed to create product", zap.Error(err))
		}
		return err
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, sku = $6, category_id = $7,
			images = $8, affiliate_percentage = $9, status = $10, updated_at = $11
		WHERE id = $1
	`

	product.UpdatedAt = time.Now().UTC()
	if product.Images == nil {
		product.Images = []string{}
	}
	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.SKU,
		product.CategoryID,
		imagesJSON,
		product.AffiliatePercentage,
		product.Status,
		product.UpdatedAt,
	)
	if _, ok := uniqueConstraint(err); ok {
		return &errors.ErrConflict{Code: errors.CodeDuplicateSKU, Message: "sku already exists"}
	}
	if err != nil {
		r.logger.Error("Failed to update product", zap.Error(err), zap.String("product_id", product.ID.String()))
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	var w where
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		w.add("category_id = ?", *filter.CategoryID)
	}
	if filter.SellerID != nil {
		w.add("seller_id = ?", *filter.SellerID)
	}
	if filter.MinPrice != nil {
		w.add("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		w.add("price <= ?", *filter.MaxPrice)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		w.add("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w.String(), w.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count products", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY created_at DESC`
	if filter.Page.Limit > 0 {
		query += ` LIMIT ` + w.next(filter.Page.Limit) + ` OFFSET ` + w.next(filter.Page.Offset())
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *productRepository) CountByStatus(ctx context.Context) (map[domain.ProductStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM products GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to count products by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ProductStatus]int)
	for rows.Next() {
		var status domain.ProductStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
