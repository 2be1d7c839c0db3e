package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"moviebook-cli/model"
	"moviebook-cli/service"
	"moviebook-cli/store"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type fakeBackend struct {
	signIn    json.RawMessage
	signUp    json.RawMessage
	user      model.User
	verifyErr error
	verified  int
}

func (f *fakeBackend) SignIn(ctx context.Context, creds model.Credentials) (json.RawMessage, error) {
	return f.signIn, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, creds model.Credentials) (json.RawMessage, error) {
	return f.signUp, nil
}

func (f *fakeBackend) VerifyUser(ctx context.Context, token string) (model.User, error) {
	f.verified++
	if f.verifyErr != nil {
		return model.User{}, f.verifyErr
	}
	return f.user, nil
}

func TestExtractToken_Order(t *testing.T) {
	cases := map[string]string{
		`{"accessToken":"a","token":"b"}`:          "a",
		`{"token":"b","data":{"accessToken":"c"}}`: "b",
		`{"data":{"accessToken":"c","token":"d"}}`: "c",
		`{"data":{"token":"d"}}`:                   "d",
		`{"data":[1,2]}`:                           "",
		`nope`:                                     "",
	}
	for in, want := range cases {
		if got := ExtractToken([]byte(in)); got != want {
			t.Fatalf("ExtractToken(%s): expected %q, got %q", in, want, got)
		}
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"id": "u1", "userRole": "admin", "exp": exp.Unix()})

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if claims.Subject != "u1" || claims.Role != "ADMIN" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, claims.ExpiresAt)
	}
	if claims.Expired(exp.Add(-time.Minute)) || !claims.Expired(exp) {
		t.Fatal("unexpected expiry evaluation")
	}
	if _, err := ParseClaims("opaque-token"); err == nil {
		t.Fatal("expected error for non JWT token")
	}
}

func TestRoles(t *testing.T) {
	if !IsAdmin(model.User{Role: "admin"}) {
		t.Fatal("expected admin")
	}
	if !IsOwner(model.User{UserRole: "CLIENT"}) || !IsOwner(model.User{Role: "owner"}) {
		t.Fatal("expected owner")
	}
	if IsAdmin(model.User{UserRole: "CUSTOMER"}) || IsOwner(model.User{UserRole: "CUSTOMER"}) {
		t.Fatal("expected customer to have no elevated role")
	}
}

func TestLogin_StoresSession(t *testing.T) {
	setTestConfigDir(t)
	token := signToken(t, jwt.MapClaims{"id": "u1", "role": "CUSTOMER"})
	backend := &fakeBackend{signIn: json.RawMessage(`{"message":"ok","data":{"name":"Asha","email":"asha@example.com","token":"` + token + `"}}`)}

	m := NewManager(backend)
	session, err := m.Login(context.Background(), model.Credentials{Email: " asha@example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if session.Token != token || session.User.Name != "Asha" || session.User.Id != "u1" || session.User.EffectiveRole() != "CUSTOMER" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if m.Token() != token {
		t.Fatalf("expected manager token set")
	}
	stored, _ := store.LoadSession()
	if stored == nil || stored.Token != token {
		t.Fatalf("expected stored session, got %+v", stored)
	}
}

func TestLogin_ValidatesCredentials(t *testing.T) {
	setTestConfigDir(t)
	m := NewManager(&fakeBackend{})
	if _, err := m.Login(context.Background(), model.Credentials{Email: "not-an-email"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLogin_NoToken(t *testing.T) {
	setTestConfigDir(t)
	m := NewManager(&fakeBackend{signIn: json.RawMessage(`{"message":"ok"}`)})
	_, err := m.Login(context.Background(), model.Credentials{Email: "a@b.co", Password: "pw"})
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestBootstrap_RejectedSessionIsCleared(t *testing.T) {
	setTestConfigDir(t)
	if err := store.SaveSession(store.Session{Token: "stale"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	backend := &fakeBackend{verifyErr: &service.APIError{StatusCode: http.StatusUnauthorized, Message: "jwt expired"}}

	session, err := NewManager(backend).Bootstrap(context.Background())
	if err != nil || session != nil {
		t.Fatalf("expected cleared session, got %+v (%v)", session, err)
	}
	if stored, _ := store.LoadSession(); stored != nil {
		t.Fatalf("expected stored session removed, got %+v", stored)
	}
}

func TestBootstrap_FailOpenOnServerError(t *testing.T) {
	setTestConfigDir(t)
	if err := store.SaveSession(store.Session{Token: "tok", User: model.User{Name: "Asha"}}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	for _, verifyErr := range []error{
		&service.APIError{StatusCode: http.StatusInternalServerError},
		errors.New("request failed: connection refused"),
	} {
		m := NewManager(&fakeBackend{verifyErr: verifyErr})
		session, err := m.Bootstrap(context.Background())
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if session == nil || session.Token != "tok" || session.User.Name != "Asha" {
			t.Fatalf("expected local session kept for %v, got %+v", verifyErr, session)
		}
	}
}

func TestBootstrap_RefreshesUserAndKeepsToken(t *testing.T) {
	setTestConfigDir(t)
	if err := store.SaveSession(store.Session{Token: "tok", User: model.User{Name: "Old"}}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	m := NewManager(&fakeBackend{user: model.User{Id: "u1", Name: "New"}})
	session, err := m.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if session.User.Name != "New" || session.User.Token != "tok" || session.Token != "tok" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestBootstrap_ExpiredTokenSkipsBackend(t *testing.T) {
	setTestConfigDir(t)
	token := signToken(t, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	if err := store.SaveSession(store.Session{Token: token}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	backend := &fakeBackend{}
	session, err := NewManager(backend).Bootstrap(context.Background())
	if err != nil || session != nil {
		t.Fatalf("expected no session, got %+v (%v)", session, err)
	}
	if backend.verified != 0 {
		t.Fatalf("expected no verify call, got %d", backend.verified)
	}
}

func TestLogout(t *testing.T) {
	setTestConfigDir(t)
	if err := store.SaveSession(store.Session{Token: "tok"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	m := NewManager(&fakeBackend{})
	if _, err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if m.Current() != nil || m.Token() != "" {
		t.Fatal("expected signed out")
	}
}
