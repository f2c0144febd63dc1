package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrInvalidToken       = apperr.Unauthorized("invalid token")
)

// IdentityProvider is the third-party identity service; *fbauth.Client satisfies it.
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*fbauth.Token, error)
}

type AuthService struct {
	Config   config.Config
	Users    ports.UserStore
	Logger   *slog.Logger
	Identity IdentityProvider
	Now      func() time.Time
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
	ExpiresAt    time.Time
}

type SessionResult struct {
	Cookie    string
	ExpiresAt time.Time
	User      domain.User
}

type LoginInput struct {
	Email    string
	Password string
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.Users.GetUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err, "user")
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

// EnsureAdmin creates the first admin account when no user owns the email yet.
// It reports whether a user was created.
func (s AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	if len(password) < minPasswordLength {
		return false, apperr.Field("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return false, storeErr(err, "user")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	h := string(hash)
	if _, err := s.Users.CreateUser(ctx, domain.User{Name: "Administrator", Email: email, Role: domain.RoleAdmin, PasswordHash: &h}); err != nil {
		return false, storeErr(err, "user")
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "bootstrap admin created", "email", email)
	return true, nil
}

func (s AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}
	userID, err := subject(claims)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, storeErr(err, "user")
	}
	return s.issueTokens(user)
}

func (s AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// SessionLogin exchanges an identity provider ID token for a session cookie.
// Accounts are only created through invitations, so the identity must match an existing user.
func (s AuthService) SessionLogin(ctx context.Context, idToken string) (*SessionResult, error) {
	if s.Identity == nil {
		return nil, apperr.Unauthorized("session login is not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, apperr.Field("idToken", "is required")
	}
	tok, err := s.Identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		loggerOrDefault(s.Logger).WarnContext(ctx, "id token rejected", "error", err)
		return nil, ErrInvalidToken
	}
	user, err := s.userForIdentity(ctx, tok)
	if err != nil {
		return nil, err
	}
	ttl := s.Config.SessionTTL
	if ttl <= 0 {
		ttl = 5 * 24 * time.Hour
	}
	cookie, err := s.Identity.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create session cookie: %w", err))
	}
	return &SessionResult{Cookie: cookie, ExpiresAt: nowFrom(s.Now).Add(ttl), User: *user}, nil
}

// userForIdentity finds the account of a verified identity, linking it by email on first use.
func (s AuthService) userForIdentity(ctx context.Context, tok *fbauth.Token) (*domain.User, error) {
	user, err := s.Users.GetUserByFirebaseUID(ctx, tok.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, storeErr(err, "user")
	}
	email, _ := tok.Claims["email"].(string)
	if email == "" {
		return nil, apperr.Unauthorized("no account is linked to this identity")
	}
	user, err = s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.Unauthorized("no account is linked to this identity")
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if err := s.Users.LinkFirebaseUID(ctx, user.ID, tok.UID); err != nil {
		return nil, storeErr(err, "user")
	}
	uid := tok.UID
	user.FirebaseUID = &uid
	return user, nil
}

// Authenticate resolves the caller from a bearer token or the session cookie.
func (s AuthService) Authenticate(ctx context.Context, bearer, cookie string) (Actor, error) {
	if bearer != "" {
		return s.actorFromAccessToken(bearer)
	}
	if cookie == "" {
		return Actor{}, apperr.Unauthorized("missing credentials")
	}
	if s.Identity == nil {
		return s.actorFromAccessToken(cookie)
	}
	tok, err := s.Identity.VerifySessionCookie(ctx, cookie)
	if err != nil {
		return Actor{}, apperr.Unauthorized("invalid session")
	}
	user, err := s.Users.GetUserByFirebaseUID(ctx, tok.UID)
	if errors.Is(err, ports.ErrNotFound) {
		return Actor{}, apperr.Unauthorized("invalid session")
	}
	if err != nil {
		return Actor{}, storeErr(err, "user")
	}
	return Actor{UserID: user.ID, StaffID: user.StaffID, Email: user.Email, Role: user.Role}, nil
}

func (s AuthService) actorFromAccessToken(token string) (Actor, error) {
	claims, err := s.parseToken(token, "access")
	if err != nil {
		return Actor{}, err
	}
	id, err := subject(claims)
	if err != nil {
		return Actor{}, err
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	a := Actor{UserID: id, Email: email, Role: domain.UserRole(role)}
	if v, ok := claims["staff_id"].(string); ok && v != "" {
		staffID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Actor{}, ErrInvalidToken
		}
		a.StaffID = &staffID
	}
	return a, nil
}

func (s AuthService) parseToken(tokenStr, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.Config.JWTSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return nowFrom(s.Now) }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (int64, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func (s AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	now := nowFrom(s.Now)
	accessExp := now.Add(s.Config.AccessTokenTTL)
	refreshExp := now.Add(s.Config.RefreshTokenTTL)

	accessClaims := jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"email":      user.Email,
		"role":       user.Role,
		"token_type": "access",
		"exp":        accessExp.Unix(),
		"iat":        now.Unix(),
	}
	if user.StaffID != nil {
		accessClaims["staff_id"] = fmt.Sprintf("%d", *user.StaffID)
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"token_type": "refresh",
		"exp":        refreshExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
		ExpiresAt:    accessExp,
	}, nil
}
