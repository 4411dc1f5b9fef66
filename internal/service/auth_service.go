package service

import (
	"context"
	"regexp"
	"strings"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/pkg/jwt"
	"sweetshop-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	hasLower    = regexp.MustCompile(`[a-z]`)
	hasUpper    = regexp.MustCompile(`[A-Z]`)
	hasDigit    = regexp.MustCompile(`\d`)
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (*model.UserResponse, error)
	EnsureAdmin(ctx context.Context, email, password string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if len(name) < 2 || len(name) > 100 {
		return newValidationError("Name must be between 2 and 100 characters")
	}
	if !namePattern.MatchString(name) {
		return newValidationError("Name can only contain letters and spaces")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return newValidationError("Password must be at least 6 characters long")
	}
	if !hasLower.MatchString(password) || !hasUpper.MatchString(password) || !hasDigit.MatchString(password) {
		return newValidationError("Password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if validator.ValidateVar(email, "required,email") != nil {
		return nil, newValidationError("Please provide a valid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.FindByEmail(ctx, email); existing != nil {
		return nil, ErrEmailExists
	}

	user := &model.User{Name: name, Email: email, Role: model.RoleUser}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (*model.UserResponse, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user.Name = name
	user.UpdatedBy = userID.String()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "update user")
	}

	resp := user.ToResponse()
	return &resp, nil
}

// EnsureAdmin creates the bootstrap administrator if no account uses the email yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "look up admin")
	}

	admin := &model.User{Name: "Admin User", Email: email, Role: model.RoleAdmin}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return errors.Wrap(err, "create admin")
	}

	log.WithField("email", email).Info("admin user created")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return ErrUserNotFound
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}
