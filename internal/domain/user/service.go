// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password is too weak")
)

const viewedOnAccount = 3

// CartMerger moves an anonymous session cart into a user's cart
type CartMerger interface {
	MergeSessionIntoUser(ctx context.Context, sess *session.Session, userID uint) error
}

// Mailer sends account emails
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, userEmail, userName string) error
	SendTemporaryPasswordEmail(ctx context.Context, userEmail, userName, password string) error
}

// OrderStats feeds the account page
type OrderStats interface {
	LastPlaced(ctx context.Context, userID uint) (*order.Order, error)
	CountPlaced(ctx context.Context, userID uint) (int64, error)
}

// ViewedProducts feeds the account page
type ViewedProducts interface {
	RecentlyViewed(ctx context.Context, userID uint, limit int) ([]product.Product, error)
}

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	mailer          Mailer
	carts           CartMerger
	orders          OrderStats
	viewed          ViewedProducts
	logger          *logrus.Logger
}

// Deps are the collaborators of the user service
type Deps struct {
	Mailer Mailer
	Carts  CartMerger
	Orders OrderStats
	Viewed ViewedProducts
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, deps Deps, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg.Security.BcryptCost),
		jwtManager:      auth.NewJWTManager(cfg),
		mailer:          deps.Mailer,
		carts:           deps.Carts,
		orders:          deps.Orders,
		viewed:          deps.Viewed,
		logger:          logger,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Phone           string `json:"phone"`
	City            string `json:"city"`
	Address         string `json:"address"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the account edit form. Empty fields are
// left unchanged; a password is only changed when both fields are set.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Phone           *string `json:"phone"`
	City            *string `json:"city"`
	Address         *string `json:"address"`
	Avatar          *string `json:"avatar"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Account is the account overview page
type Account struct {
	User           *User             `json:"user"`
	LastOrder      *order.Order      `json:"last_order"`
	OrdersCount    int64             `json:"orders_count"`
	ViewedProducts []product.Product `json:"viewed_products"`
}

// Register creates a new account, signs it in and moves the session cart
// into it
func (s *Service) Register(ctx context.Context, sess *session.Session, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	now := time.Now().UTC()
	user := User{
		Email:       email,
		Password:    hashedPassword,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       NormalizePhone(req.Phone),
		City:        strings.TrimSpace(req.City),
		Address:     strings.TrimSpace(req.Address),
		IsActive:    true,
		LastLoginAt: &now,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")

	if s.mailer != nil {
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.mailer.SendWelcomeEmail(ctx, email, name); err != nil {
				s.logger.WithError(err).WithField("email", email).Error("Failed to send welcome email")
			}
		}(user.Email, user.GetDisplayName())
	}

	return s.signIn(ctx, sess, &user)
}

// Login authenticates a user and moves the session cart into their cart
func (s *Service) Login(ctx context.Context, sess *session.Session, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(req.Email)), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		UpdateColumn("last_login_at", now).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	user.LastLoginAt = &now

	return s.signIn(ctx, sess, &user)
}

// signIn issues tokens and merges the anonymous cart. A failed merge
// leaves the session cart in place; merging again later is safe.
func (s *Service) signIn(ctx context.Context, sess *session.Session, user *User) (*AuthResponse, error) {
	resp, err := s.tokens(user)
	if err != nil {
		return nil, err
	}

	if sess != nil && s.carts != nil {
		if err := s.carts.MergeSessionIntoUser(ctx, sess, user.ID); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    user.ID,
				"session_id": sess.ID,
			}).Error("Failed to merge session cart")
		}
	}
	return resp, nil
}

func (s *Service) tokens(user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Clear password from response
	user.Password = ""

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// RefreshToken issues a new token pair from a refresh token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.tokens(user)
}

// GetProfile gets an active user by ID
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	user.Password = ""
	return &user, nil
}

// UpdateProfile edits the account; the phone is stored normalized
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*User, error) {
	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("city", req.City)
	set("address", req.Address)
	set("avatar", req.Avatar)
	if req.Phone != nil {
		updates["phone"] = NormalizePhone(*req.Phone)
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		var count int64
		if err := s.db.WithContext(ctx).Model(&User{}).
			Where("email = ? AND id <> ?", email, userID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return nil, ErrEmailTaken
		}
		updates["email"] = email
	}

	if req.Password != "" || req.ConfirmPassword != "" {
		if req.Password != req.ConfirmPassword {
			return nil, ErrPasswordMismatch
		}
		hashed, err := s.passwordManager.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&User{}).
			Where("id = ? AND is_active = ?", userID, true).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return s.GetProfile(ctx, userID)
}

// RestorePassword replaces the password with a generated one and mails it
func (s *Service) RestorePassword(ctx context.Context, email string) error {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	plain, hashed, err := s.passwordManager.GenerateTemporaryPassword()
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).
		UpdateColumn("password", hashed).Error; err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendTemporaryPasswordEmail(ctx, user.Email, user.GetDisplayName(), plain); err != nil {
			return fmt.Errorf("failed to send password email: %w", err)
		}
	}

	s.logger.WithField("user_id", user.ID).Info("Password restored")
	return nil
}

// Account builds the account overview: last order, number of orders and
// the last viewed products
func (s *Service) Account(ctx context.Context, userID uint) (*Account, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	account := &Account{User: user, ViewedProducts: []product.Product{}}

	if s.orders != nil {
		last, err := s.orders.LastPlaced(ctx, userID)
		switch {
		case err == nil:
			account.LastOrder = last
		case !errors.Is(err, order.ErrOrderNotFound):
			return nil, err
		}

		if account.OrdersCount, err = s.orders.CountPlaced(ctx, userID); err != nil {
			return nil, err
		}
	}

	if s.viewed != nil {
		viewed, err := s.viewed.RecentlyViewed(ctx, userID, viewedOnAccount)
		if err != nil {
			return nil, err
		}
		account.ViewedProducts = viewed
	}

	return account, nil
}
