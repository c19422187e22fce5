package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/appctx"
	"hidesync/internal/core/id"
	"hidesync/pkg/logger"
)

// Claims carried in access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

// Service issues and verifies JWT access tokens and checks passwords.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service.
func NewService(repo Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password return the same error.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
		Tier:  user.Tier,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	if err := s.repo.RecordLogin(ctx, user); err != nil {
		logger.Warn(ctx, "last login not recorded", "user", user.ID, "error", err)
	}

	return &TokenPair{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, fullName, tier string) (*User, error) {
	if email == "" || password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("user", "email", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if tier == "" {
		tier = TierBasic
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Tier:         tier,
		IsActive:     true,
	}
	user.ID = id.New()
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify parses and validates a token, returning the user context to attach
// to the request.
func (s *Service) Verify(tokenString string) (*appctx.UserContext, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.NewUnauthorized("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token")
	}

	userID, err := id.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token subject")
	}
	return &appctx.UserContext{
		UserID: userID,
		Email:  claims.Email,
		Tier:   claims.Tier,
	}, nil
}
