package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mapcreator/api/internal/store"
)

type fakeUserStore struct {
	users  map[string]store.User // by email
	resets map[string]string     // token -> user id
	used   map[string]bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  map[string]store.User{},
		resets: map[string]string{},
		used:   map[string]bool{},
	}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	user.ID = "user-" + user.Email
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	for email, user := range f.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			f.users[email] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeUserStore) CreatePasswordReset(_ context.Context, userID, token string, _ time.Time) error {
	f.resets[token] = userID
	return nil
}

func (f *fakeUserStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	if f.used[token] {
		return "", store.ErrNotFound
	}
	userID, ok := f.resets[token]
	if !ok {
		return "", store.ErrNotFound
	}
	return userID, nil
}

func (f *fakeUserStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	f.used[token] = true
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{Email: "Maps@Example.com", Password: "supersecret", DisplayName: "Mapper"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Email != "maps@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "supersecret" {
		t.Error("password stored in plain text")
	}

	signedIn, err := svc.SignIn(ctx, "maps@example.com", "supersecret")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("signed in as %q, want %q", signedIn.ID, user.ID)
	}

	if _, err := svc.SignIn(ctx, "maps@example.com", "wrongpass"); err != ErrInvalidCredentials {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "supersecret"); err != ErrInvalidCredentials {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "", Password: "supersecret"}); err != ErrMissingFields {
		t.Errorf("missing email: got %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "short"}); err != ErrWeakPassword {
		t.Errorf("weak password: got %v", err)
	}

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "supersecret"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: got %v, want ErrEmailTaken", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "a@b.c")
	if err != nil || token == "" {
		t.Fatalf("RequestPasswordReset = (%q, %v)", token, err)
	}

	// Unknown emails produce no token and no error.
	if tok, err := svc.RequestPasswordReset(ctx, "ghost@b.c"); err != nil || tok != "" {
		t.Errorf("unknown email reset = (%q, %v), want empty and nil", tok, err)
	}

	if err := svc.ResetPassword(ctx, token, "newpassword"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	user := fs.users["a@b.c"]
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword")) != nil {
		t.Error("password not updated")
	}

	if err := svc.ResetPassword(ctx, token, "anotherpass"); err != ErrInvalidResetToken {
		t.Errorf("reused token: got %v, want ErrInvalidResetToken", err)
	}
	if err := svc.ResetPassword(ctx, "bogus", "anotherpass"); err != ErrInvalidResetToken {
		t.Errorf("bogus token: got %v, want ErrInvalidResetToken", err)
	}
}
