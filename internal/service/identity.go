package service

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/auth"
	"github.com/jafarshop/marketplace/internal/config"
	"github.com/jafarshop/marketplace/internal/domain"
	"github.com/jafarshop/marketplace/internal/repository"
	"github.com/jafarshop/marketplace/pkg/errors"
)

type identityService struct {
	cfg           *config.Config
	repos         *repository.Repositories
	tokens        *auth.TokenIssuer
	notifications *notificationService
	logger        *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	cfg *config.Config,
	repos *repository.Repositories,
	tokens *auth.TokenIssuer,
	notifications *notificationService,
	logger *zap.Logger,
) *identityService {
	return &identityService{
		cfg:           cfg,
		repos:         repos,
		tokens:        tokens,
		notifications: notifications,
		logger:        logger,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &errors.ErrValidation{Message: "invalid email address", Fields: map[string]string{"email": "invalid"}}
	}
	return email, nil
}

// Register creates a seller or customer account. Sellers start pending and get a wallet and a shop.
func (s *identityService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role != domain.RoleSeller && role != domain.RoleCustomer {
		return nil, &errors.ErrValidation{Message: "role must be seller or customer", Fields: map[string]string{"role": "invalid"}}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &errors.ErrValidation{Message: "name is required", Fields: map[string]string{"name": "required"}}
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, &errors.ErrValidation{Message: err.Error(), Fields: map[string]string{"password": "too_short"}}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
		Phone:        strings.TrimSpace(req.Phone),
		BusinessName: strings.TrimSpace(req.BusinessName),
	}
	if role == domain.RoleSeller {
		user.Status = domain.UserStatusPending
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	if role == domain.RoleSeller {
		if err := s.provisionSeller(ctx, user, req); err != nil {
			return nil, err
		}
		s.notifications.Notify(ctx, user.ID, domain.NotificationSellerApplication,
			"Application received",
			"Your seller application is under review. You can sign in once an admin approves it.")
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

func (s *identityService) provisionSeller(ctx context.Context, user *domain.User, req RegisterRequest) error {
	wallet := &domain.Wallet{
		SellerID:       user.ID,
		Balance:        decimal.Zero,
		TotalEarnings:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Currency:       s.cfg.Site.Currency,
	}
	if err := s.repos.Wallet.Create(ctx, wallet); err != nil {
		s.logger.Error("Failed to create seller wallet", zap.String("seller_id", user.ID.String()), zap.Error(err))
		return err
	}

	shopName := strings.TrimSpace(req.ShopName)
	if shopName == "" {
		shopName = user.BusinessName
	}
	if shopName == "" {
		shopName = user.Name
	}
	shop := &domain.SellerShop{
		SellerID:    user.ID,
		ShopName:    shopName,
		Description: strings.TrimSpace(req.ShopDescription),
		IsActive:    true,
		Analytics:   domain.ShopAnalytics{TotalRevenue: decimal.Zero},
	}
	if err := s.repos.Shop.Create(ctx, shop); err != nil {
		s.logger.Error("Failed to create seller shop", zap.String("seller_id", user.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

// CreateAdmin creates an active admin account. Admins are never self-registered.
func (s *identityService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, &errors.ErrValidation{Message: "name is required", Fields: map[string]string{"name": "required"}}
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, &errors.ErrValidation{Message: err.Error(), Fields: map[string]string{"password": "too_short"}}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Admin created", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies credentials and issues a session token.
// Seller approval is checked only after the password matches.
func (s *identityService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repos.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var notFound *errors.ErrNotFound
		if stderrors.As(err, &notFound) {
			return nil, &errors.ErrInvalidCredentials{}
		}
		return nil, err
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, &errors.ErrInvalidCredentials{}
	}

	if user.Role == domain.RoleSeller && user.Status != domain.UserStatusApproved {
		pending := &errors.ErrPendingApproval{Status: string(user.Status)}
		if user.RejectionReason != nil {
			pending.Reason = *user.RejectionReason
		}
		return nil, pending
	}

	token, expiresAt, err := s.tokens.Issue(auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		s.logger.Error("Failed to issue session token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a session token to its principal
func (s *identityService) Authenticate(token string) (*auth.Principal, error) {
	if token == "" {
		return nil, &errors.ErrUnauthorized{Message: "authentication required"}
	}
	p, err := s.tokens.Parse(token)
	if err != nil {
		return nil, &errors.ErrUnauthorized{Message: err.Error()}
	}
	return p, nil
}

// Me returns the user record behind a principal
func (s *identityService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repos.User.GetByID(ctx, userID)
}
