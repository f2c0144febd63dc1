package service

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/crypto/bcrypt"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

type fakeIdentity struct {
	tokens  map[string]*fbauth.Token
	cookies map[string]*fbauth.Token
}

func (f *fakeIdentity) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := f.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid id token")
}

func (f *fakeIdentity) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	cookie := "cookie-" + idToken
	f.cookies[cookie] = f.tokens[idToken]
	return cookie, nil
}

func (f *fakeIdentity) VerifySessionCookie(_ context.Context, cookie string) (*fbauth.Token, error) {
	if tok, ok := f.cookies[cookie]; ok {
		return tok, nil
	}
	return nil, errors.New("invalid session cookie")
}

func newAuthService(t *testing.T, store *memstore.Store) AuthService {
	t.Helper()
	return AuthService{
		Config: config.Config{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			SessionTTL:      time.Hour,
		},
		Users:  store,
		Logger: discardLogger(),
		Now:    fixedClock(testNow),
	}
}

func seedUser(t *testing.T, store *memstore.Store, email, password string, role domain.UserRole) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h := string(hash)
	u, err := store.CreateUser(context.Background(), domain.User{Name: email, Email: email, Role: role, PasswordHash: &h})
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	return u
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	u := seedUser(t, store, "hr@example.com", "s3cret-pass", domain.RoleManager)
	st, _ := store.CreateStaff(ctx, domain.Staff{Name: "hr", UserID: &u.ID})
	svc := newAuthService(t, store)

	if _, err := svc.Login(ctx, LoginInput{Email: "hr@example.com", Password: "wrong"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "x"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	res, err := svc.Login(ctx, LoginInput{Email: "hr@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", res.ExpiresAt)
	}

	actor, err := svc.Authenticate(ctx, res.AccessToken, "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.UserID != u.ID || actor.Role != domain.RoleManager || actor.StaffID == nil || *actor.StaffID != st.ID {
		t.Fatalf("unexpected actor %+v", actor)
	}
	if _, err := svc.Authenticate(ctx, res.RefreshToken, ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("refresh tokens must not authenticate requests, got %v", err)
	}
	// without an identity provider the cookie carries our access token
	if _, err := svc.Authenticate(ctx, "", res.AccessToken); err != nil {
		t.Fatalf("cookie authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "", ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	later := svc
	later.Now = fixedClock(testNow.Add(2 * time.Hour))
	if _, err := later.Authenticate(ctx, res.AccessToken, ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
	refreshed, err := later.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := later.Authenticate(ctx, refreshed.AccessToken, ""); err != nil {
		t.Fatalf("refreshed token: %v", err)
	}
	if _, err := later.Refresh(ctx, res.AccessToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("access tokens cannot refresh, got %v", err)
	}

	other := svc
	other.Config.JWTSecret = "another-secret"
	if _, err := other.Authenticate(ctx, res.AccessToken, ""); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("foreign signature must be rejected, got %v", err)
	}
}

func TestSessionLoginLinksIdentity(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	u := seedUser(t, store, "staff@example.com", "password1", domain.RoleStaff)
	idp := &fakeIdentity{
		tokens: map[string]*fbauth.Token{
			"good":    {UID: "fb-1", Claims: map[string]interface{}{"email": "staff@example.com"}},
			"unknown": {UID: "fb-2", Claims: map[string]interface{}{"email": "stranger@example.com"}},
		},
		cookies: map[string]*fbauth.Token{},
	}
	svc := newAuthService(t, store)

	if _, err := svc.SessionLogin(ctx, "good"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("session login needs an identity provider, got %v", err)
	}
	svc.Identity = idp

	if _, err := svc.SessionLogin(ctx, "forged"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.SessionLogin(ctx, "unknown"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("identities without an account are rejected, got %v", err)
	}
	res, err := svc.SessionLogin(ctx, "good")
	if err != nil {
		t.Fatalf("session login: %v", err)
	}
	if res.Cookie != "cookie-good" || res.User.ID != u.ID || !res.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected session %+v", res)
	}
	linked, _ := store.GetUserByFirebaseUID(ctx, "fb-1")
	if linked == nil || linked.ID != u.ID {
		t.Fatalf("identity was not linked")
	}

	actor, err := svc.Authenticate(ctx, "", res.Cookie)
	if err != nil || actor.UserID != u.ID {
		t.Fatalf("cookie authenticate: %+v (%v)", actor, err)
	}
	if _, err := svc.Authenticate(ctx, "", "cookie-forged"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newAuthService(t, store)

	if created, err := svc.EnsureAdmin(ctx, "", ""); err != nil || created {
		t.Fatalf("no email means nothing to do, got %v %v", created, err)
	}
	if _, err := svc.EnsureAdmin(ctx, "root@example.com", "short"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("weak password must be rejected, got %v", err)
	}
	created, err := svc.EnsureAdmin(ctx, "root@example.com", "root-pass-1")
	if err != nil || !created {
		t.Fatalf("first call must create the admin, got %v %v", created, err)
	}
	if created, err := svc.EnsureAdmin(ctx, "root@example.com", "other-pass-1"); err != nil || created {
		t.Fatalf("second call must be a no-op, got %v %v", created, err)
	}

	res, err := svc.Login(ctx, LoginInput{Email: "root@example.com", Password: "root-pass-1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.Role != domain.RoleAdmin {
		t.Fatalf("bootstrap user must be admin, got %s", res.User.Role)
	}
}
