package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

// SignUpInput 注册表单
type SignUpInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// TokenIssuer 由 pkg/jwt.Manager 实现
type TokenIssuer interface {
	Generate(userID, username string) (string, error)
}

type UserService interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.User, error)
	// Login 用户名或密码错误统一返回 ErrUnauthorized
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	PromoteStaff(ctx context.Context, username string) error
}

type userService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer) UserService {
	return &userService{userRepo: userRepo, tokens: tokens}
}

func (s *userService) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ValidationError{Fields: []FieldError{{Field: "username", Message: "a user with that username already exists"}}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrUnauthorized
	}
	token, err := s.tokens.Generate(u.ID, u.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound("author", err)
	}
	return u, nil
}

func (s *userService) PromoteStaff(ctx context.Context, username string) error {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.userRepo.SetStaff(ctx, u.ID, true)
}
