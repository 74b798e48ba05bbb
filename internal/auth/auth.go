package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookieName = "notary_session"
	issuer            = "digital-notary"
)

// Claims is the session carried by the token.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Context    string `json:"ctx"`
	CompanyICO string `json:"company_ico,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Session() *internal.Session {
	ctx := c.Context
	if ctx == "" {
		ctx = internal.ContextPersonal
	}
	return &internal.Session{
		UserID:     c.UserID,
		Email:      c.Email,
		Context:    ctx,
		CompanyICO: c.CompanyICO,
	}
}

// TokenGenerator issues and validates session tokens.
type TokenGenerator interface {
	Generate(s *internal.Session) (token string, expiresAt time.Time, err error)
	Validate(token string) (*Claims, error)
}

type JWTTokenGenerator struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret: []byte(secret),
		TTL:    ttl,
		now:    time.Now,
	}
}

func (j *JWTTokenGenerator) Generate(s *internal.Session) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.TTL)

	claims := &Claims{
		UserID:     s.UserID,
		Email:      s.Email,
		Context:    s.Context,
		CompanyICO: s.CompanyICO,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (j *JWTTokenGenerator) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
