package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")

	clubID := "club-1"
	req := RegisterRequest{
		Email:    "alice@example.com",
		Password: "supersafe",
		FullName: "Alice Admin",
		ClubID:   &clubID,
	}

	ctx := context.Background()
	user, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if user.Email != req.Email {
		t.Fatalf("expected email %q got %q", req.Email, user.Email)
	}
	if user.Role != RoleClubAdmin {
		t.Fatalf("register: expected default role %s got %s", RoleClubAdmin, user.Role)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.User.ID != user.ID {
		t.Fatalf("login: expected user id %q got %q", user.ID, resp.User.ID)
	}

	ident, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if ident.UserID != user.ID {
		t.Fatalf("verify token: expected %q got %q", user.ID, ident.UserID)
	}
	if ident.ClubID != clubID {
		t.Fatalf("verify token: expected club %q got %q", clubID, ident.ClubID)
	}
	if ident.Role != RoleClubAdmin {
		t.Fatalf("verify token: expected role %s got %s", RoleClubAdmin, ident.Role)
	}
	if ident.Elevated() {
		t.Fatal("verify token: club admin must not be elevated")
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	ctx := context.Background()

	clubID := "club-1"

	if _, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "short", FullName: "A", ClubID: &clubID}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "longenough", FullName: "A", Role: Role("superuser"), ClubID: &clubID}); err == nil || !strings.Contains(err.Error(), "invalid role") {
		t.Fatalf("expected invalid role error got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Email: "a@b.c", Password: "longenough", FullName: "A"}); err == nil || !strings.Contains(err.Error(), "club_id") {
		t.Fatalf("expected missing club_id error got %v", err)
	}

	// Platform admins carry no club.
	if _, err := svc.Register(ctx, RegisterRequest{Email: "root@b.c", Password: "longenough", FullName: "Root", Role: RolePlatformAdmin}); err != nil {
		t.Fatalf("platform admin register: %v", err)
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret")
	ctx := context.Background()

	clubID := "club-1"
	if _, err := svc.Register(ctx, RegisterRequest{Email: "bob@example.com", Password: "correcthorse", FullName: "Bob", ClubID: &clubID}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email got %v", err)
	}
}

func TestService_VerifyTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeRepository(), "test-secret")
	if _, err := svc.VerifyToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	other := NewService(newFakeRepository(), "different-secret")
	clubID := "club-1"
	ctx := context.Background()
	if _, err := other.Register(ctx, RegisterRequest{Email: "eve@example.com", Password: "correcthorse", FullName: "Eve", ClubID: &clubID}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := other.Login(ctx, LoginRequest{Email: "eve@example.com", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.VerifyToken(resp.Token); err == nil {
		t.Fatal("expected error for token signed with a different key")
	}
}

type fakeRepository struct {
	byEmail map[string]User
	byID    map[string]User
	nextID  int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byEmail: map[string]User{},
		byID:    map[string]User{},
	}
}

func (f *fakeRepository) CreateUser(_ context.Context, params CreateUserParams) (User, error) {
	if _, ok := f.byEmail[params.Email]; ok {
		return User{}, ErrDuplicateEmail
	}
	f.nextID++
	user := User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		ClubID:       params.ClubID,
		Role:         params.Role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) GetUserByID(_ context.Context, userID string) (User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
