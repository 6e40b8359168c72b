package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/models"
	"github.com/eirikhm/tripfellows/pkg/crypto"
	apperrors "github.com/eirikhm/tripfellows/pkg/errors"
)

const minPasswordLength = 6

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken signals the email is already registered.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email already registered", http.StatusConflict)
)

// RegisterInput captures the fields required to create an account.
type RegisterInput struct {
	Email    string
	Password string
}

// UpdateProfileInput describes mutable profile fields. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Alias       *string
	Description *string
	NewPassword *string
}

// ProfileView bundles a user with their proposals, split by whether the
// proposal is still active.
type ProfileView struct {
	User              models.User           `json:"user"`
	ActiveProposals   []models.TripProposal `json:"active_proposals"`
	InactiveProposals []models.TripProposal `json:"inactive_proposals"`
}

// UserService handles registration, credential checks, and profiles.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates an account with a hashed credential.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: hashed,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email/password pair and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &user, nil
}

// GetByID loads an account by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	return &user, nil
}

// Profile returns the user together with their proposals, active ones (still
// discoverable) separated from finalized and cancelled ones.
func (s *UserService) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var proposals []models.TripProposal
	err = s.db.WithContext(ctx).
		Joins("JOIN participations ON participations.proposal_id = trip_proposals.id").
		Where("participations.user_id = ?", user.ID).
		Order("trip_proposals.created_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("user service: load proposals: %w", err)
	}

	view := &ProfileView{User: *user}
	for _, proposal := range proposals {
		if proposal.Status.Discoverable() {
			view.ActiveProposals = append(view.ActiveProposals, proposal)
		} else {
			view.InactiveProposals = append(view.InactiveProposals, proposal)
		}
	}

	return view, nil
}

// UpdateProfile modifies alias, description, and optionally the password.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Alias != nil {
		updates["alias"] = strings.TrimSpace(*input.Alias)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.NewPassword != nil {
		if len(*input.NewPassword) < minPasswordLength {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
		}
		hashed, err := crypto.HashPassword(*input.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		updates["password"] = hashed
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return user, nil
}
