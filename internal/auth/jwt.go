package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/config"
)

// Kind discriminates what a token may be used for.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindEmail   Kind = "email"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenWrongKind = fmt.Errorf("%w: wrong kind", ErrInvalidToken)
)

// Claims carries the user's email as subject plus the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"scope"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer signs and decodes tokens with a process-wide HMAC secret.
type Issuer struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	now        func() time.Time
}

func NewIssuer(cfg *config.Config) *Issuer {
	var method jwt.SigningMethod = jwt.SigningMethodHS256
	if cfg.JWTAlgorithm == jwt.SigningMethodHS512.Alg() {
		method = jwt.SigningMethodHS512
	}
	return &Issuer{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  cfg.JWTAccessExpiry,
		refreshTTL: cfg.JWTRefreshExpiry,
		emailTTL:   cfg.JWTEmailExpiry,
		now:        time.Now,
	}
}

func (i *Issuer) Algorithm() string {
	return i.method.Alg()
}

func (i *Issuer) Secret() []byte {
	return i.secret
}

func (i *Issuer) IssueAccess(subject string) (string, error) {
	return i.issue(subject, KindAccess, i.accessTTL)
}

func (i *Issuer) IssueRefresh(subject string) (string, error) {
	return i.issue(subject, KindRefresh, i.refreshTTL)
}

func (i *Issuer) IssueEmail(subject string) (string, error) {
	return i.issue(subject, KindEmail, i.emailTTL)
}

func (i *Issuer) IssuePair(subject string) (*TokenPair, error) {
	access, err := i.IssueAccess(subject)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefresh(subject)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(i.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode verifies signature, expiry and kind, and returns the subject.
func (i *Issuer) Decode(raw string, want Kind) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case !token.Valid:
		return "", ErrTokenMalformed
	}

	if claims.Kind != want {
		return "", ErrTokenWrongKind
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
