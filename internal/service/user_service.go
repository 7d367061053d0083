package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens. *middleware.Authenticator satisfies it.
type TokenIssuer interface {
	IssueToken(userID uint) (string, error)
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

type RegisterInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	CountryCode string `json:"country_code" validate:"omitempty,country_code"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Password    string `json:"password" validate:"required,strong_password"`
}

type LoginInput struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = validation.NormalizePhone(in.Phone)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Name:        in.Name,
		Phone:       in.Phone,
		Email:       strings.TrimSpace(in.Email),
		CountryCode: in.CountryCode,
		Password:    string(hash),
	}
	if user.CountryCode == "" {
		user.CountryCode = "+1"
	}
	if in.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, in.DateOfBirth)
		if err != nil {
			return nil, models.NewValidationError("date_of_birth must be YYYY-MM-DD")
		}
		user.DateOfBirth = &dob
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	invalid := models.NewUnauthorizedError("Invalid phone or password")
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.users.GetByPhone(ctx, validation.NormalizePhone(in.Phone))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, invalid
		}
		return nil, models.NewInternalError(err)
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// IsAdmin is the AdminCheck used by the content services.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.users.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.users.ListAdmins(ctx)
}
