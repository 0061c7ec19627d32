package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		User:          NewUserRepository(db, logger),
		Category:      NewCategoryRepository(db, logger),
		Product:       NewProductRepository(db, logger),
		Enquiry:       NewEnquiryRepository(db, logger),
		AffiliateLink: NewAffiliateLinkRepository(db, logger),
		Order:         NewOrderRepository(db, logger),
		Settlement:    NewSettlementRepository(db, logger),
		Wallet:        NewWalletRepository(db, logger),
		Payout:        NewPayoutRepository(db, logger),
		Shop:          NewShopRepository(db, logger),
		Coupon:        NewCouponRepository(db, logger),
		Notification:  NewNotificationRepository(db, logger),
	}
}
