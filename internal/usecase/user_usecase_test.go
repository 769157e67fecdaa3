package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/domain/models"
	"github.com/voicebridge/voicebridge/internal/usecase"
)

// memUserRepo is an in-memory stand-in for the postgres user repository.
type memUserRepo struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (r *memUserRepo) CreateUser(user *models.User) error {
	copied := *user
	r.byID[user.ID] = &copied
	r.byEmail[user.Email] = &copied
	return nil
}

func (r *memUserRepo) GetUserByID(id uuid.UUID) (*models.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetUserByEmail(email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, errNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) UpdateLastLogin(uuid.UUID) error { return nil }

func (r *memUserRepo) UpdateAvatar(id uuid.UUID, avatarURL string) error {
	if user, ok := r.byID[id]; ok {
		user.AvatarURL = &avatarURL
	}
	return nil
}

var errNotFound = errors.New("user not found")

func TestCreateUserAndLogin(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewUserUsecase([]byte("test-secret"), newMemUserRepo(), nil)

	user, err := uc.CreateUser(ctx, "alice@example.com", "alice", "secret123")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Password != "" {
		t.Error("CreateUser returned the password hash")
	}

	validated, err := uc.ValidateCredentials(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("ValidateCredentials failed: %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("validated ID = %v, want %v", validated.ID, user.ID)
	}

	if _, err := uc.ValidateCredentials(ctx, "alice@example.com", "wrong"); err == nil {
		t.Error("ValidateCredentials accepted a wrong password")
	}
}

func TestCreateUserShortPassword(t *testing.T) {
	uc := usecase.NewUserUsecase([]byte("test-secret"), newMemUserRepo(), nil)

	if _, err := uc.CreateUser(context.Background(), "bob@example.com", "bob", "123"); err == nil {
		t.Fatal("CreateUser accepted a password shorter than 6 characters")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	uc := usecase.NewUserUsecase([]byte("test-secret"), newMemUserRepo(), nil)

	user := models.NewUser()

	token, err := uc.GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	userID, err := uc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if userID != user.ID {
		t.Errorf("VerifyToken subject = %v, want %v", userID, user.ID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := usecase.NewUserUsecase([]byte("secret-a"), newMemUserRepo(), nil)
	verifier := usecase.NewUserUsecase([]byte("secret-b"), newMemUserRepo(), nil)

	token, err := issuer.GenerateJWT(models.NewUser())
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Fatal("VerifyToken accepted a token signed with another secret")
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	uc := usecase.NewUserUsecase([]byte("test-secret"), newMemUserRepo(), nil)

	if _, err := uc.VerifyToken("not.a.token"); err == nil {
		t.Fatal("VerifyToken accepted garbage")
	}
}
