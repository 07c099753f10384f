// Package session issues, resolves and revokes signed session tokens.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"chirper/internal/middleware"
	"chirper/internal/models"
	"chirper/internal/observability"
	"chirper/internal/repository"
	"chirper/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	Issuer   = "chirper-api"
	Audience = "chirper-client"

	// DefaultTTL applies when SESSION_TTL_HOURS is unset.
	DefaultTTL = 7 * 24 * time.Hour

	passwordCost     = 12
	blacklistPrefix  = "blacklist:"
	invalidCreds     = "Invalid credentials"
	invalidSession   = "Invalid or expired token"
	revocationWindow = 5 * time.Second
)

// Session is a signed token together with the user it was issued for.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Email    string
	Username string
	Name     string
	Password string
}

// Authenticator owns credentials and session tokens.
type Authenticator struct {
	users  repository.UserRepository
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator. rdb may be nil, in which case logout
// cannot revoke tokens and they stay valid until they expire.
func NewAuthenticator(users repository.UserRepository, rdb *redis.Client, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authenticator{
		users:  users,
		rdb:    rdb,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   passwordCost,
		now:    time.Now,
	}
}

// Register creates a user with a hashed password and signs them in.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (sess *Session, err error) {
	ctx, span := observability.StartSpan(ctx, "Authenticator.Register")
	defer span.Finish(&err)
	defer func() { recordAttempt("register", err) }()

	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" || in.Username == "" || in.Name == "" || in.Password == "" {
		return nil, models.NewValidationError("Missing fields")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	hash := string(hashed)

	user := &models.User{
		Email:          in.Email,
		Username:       in.Username,
		Name:           in.Name,
		HashedPassword: &hash,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := a.issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Login checks credentials and returns a fresh session. Every credential mismatch
// yields the same Unauthenticated error.
func (a *Authenticator) Login(ctx context.Context, email, password string) (sess *Session, err error) {
	ctx, span := observability.StartSpan(ctx, "Authenticator.Login")
	defer span.Finish(&err)
	defer func() { recordAttempt("login", err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasCredentials() {
		return nil, models.NewUnauthenticatedError(invalidCreds)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte(password)); err != nil {
		return nil, models.NewUnauthenticatedError(invalidCreds)
	}

	token, err := a.issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate validates token and returns its user id. It satisfies middleware.SessionResolver.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (uint, error) {
	claims, err := a.parse(token)
	if err != nil {
		return 0, err
	}
	if err := a.checkRevoked(ctx, claims.ID); err != nil {
		return 0, err
	}

	userID, err := subjectID(claims)
	if err != nil {
		return 0, err
	}
	ok, err := a.users.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, models.NewUnauthenticatedError(invalidSession)
	}
	return userID, nil
}

// ResolveCurrentUser returns the user behind token.
func (a *Authenticator) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := a.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetByID(ctx, userID)
	if models.IsNotFound(err) {
		return nil, models.NewUnauthenticatedError(invalidSession)
	}
	return user, err
}

// Logout revokes token until it would have expired.
func (a *Authenticator) Logout(ctx context.Context, token string) (err error) {
	defer func() { recordAttempt("logout", err) }()

	claims, err := a.parse(token)
	if err != nil {
		return err
	}
	if a.rdb == nil {
		middleware.Logger.WarnContext(ctx, "redis unavailable, token not revoked", "jti", claims.ID)
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return models.NewUnauthenticatedError(invalidSession)
	}

	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	if err := a.rdb.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (a *Authenticator) issue(userID uint) (string, error) {
	if len(a.secret) == 0 {
		return "", models.NewInternalError(errors.New("JWT secret not configured"))
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

func (a *Authenticator) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, models.NewUnauthenticatedError("Authorization required")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, models.NewUnauthenticatedError(invalidSession)
	}
	return claims, nil
}

// checkRevoked fails closed only on a confirmed blacklist hit; a Redis outage keeps sessions usable.
func (a *Authenticator) checkRevoked(ctx context.Context, jti string) error {
	if a.rdb == nil || jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, revocationWindow)
	defer cancel()

	n, err := a.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "revocation check failed", "jti", jti, "error", err)
		return nil
	}
	if n > 0 {
		return models.NewUnauthenticatedError("Token has been revoked")
	}
	return nil
}

func subjectID(claims *jwt.RegisteredClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewUnauthenticatedError("Invalid user ID in token")
	}
	return uint(id), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func recordAttempt(action string, err error) {
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = strings.ToLower(models.ErrorCode(err))
	}
	observability.AuthAttempts.WithLabelValues(action, outcome).Inc()
}
