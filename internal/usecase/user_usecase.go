package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicebridge/voicebridge/internal/domain/models"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/postgres/repository"
)

const tokenTTL = 24 * time.Hour

// UserUsecase covers account management and token issuance.
type UserUsecase interface {
	CreateUser(ctx context.Context, email, username, password string) (*models.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	GenerateJWT(user *models.User) (string, error)

	// VerifyToken checks a bearer token and returns the user it names.
	VerifyToken(token string) (uuid.UUID, error)

	RoomHistory(ctx context.Context, userID uuid.UUID) ([]models.RoomSession, error)
}

type userUsecase struct {
	jwtSecret []byte

	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

func NewUserUsecase(
	jwtSecret []byte,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
) UserUsecase {
	return &userUsecase{
		jwtSecret:   jwtSecret,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

func (uc *userUsecase) CreateUser(ctx context.Context, email, username, password string) (*models.User, error) {
	if len(password) < 6 {
		return nil, fmt.Errorf("password too short")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.NewUser()
	user.Email = email
	user.Username = username
	user.Password = string(hashedPassword)

	if err = uc.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (uc *userUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return uc.userRepo.GetUserByID(id)
}

func (uc *userUsecase) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := uc.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, err
	}

	if err = uc.userRepo.UpdateLastLogin(user.ID); err != nil {
		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (uc *userUsecase) GenerateJWT(user *models.User) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(uc.jwtSecret)
}

func (uc *userUsecase) VerifyToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return uc.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}

	return userID, nil
}

func (uc *userUsecase) RoomHistory(ctx context.Context, userID uuid.UUID) ([]models.RoomSession, error) {
	return uc.sessionRepo.HistoryFor(userID)
}
