package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtClaims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTCodec issues HS256 tokens signed with a single shared secret.
type JWTCodec struct {
	secret []byte
	opts   codecOptions
	parser *jwt.Parser
}

func NewJWTCodec(secret string, opts ...CodecOption) *JWTCodec {
	o := defaultCodecOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &JWTCodec{
		secret: []byte(secret),
		opts:   o,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(o.now),
		),
	}
}

func (c *JWTCodec) Issue(id Identity) (string, error) {
	return c.sign(id, TokenTypeSession, c.opts.sessionTTL)
}

func (c *JWTCodec) IssueEmailVerification(id Identity) (string, error) {
	return c.sign(id, TokenTypeEmailVerify, c.opts.verifyTTL)
}

func (c *JWTCodec) Verify(token string) (*Claims, error) {
	return c.verify(token, TokenTypeSession)
}

func (c *JWTCodec) VerifyEmailVerification(token string) (*Claims, error) {
	return c.verify(token, TokenTypeEmailVerify)
}

func (c *JWTCodec) sign(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := c.opts.now()

	claims := jwtClaims{
		UserID:    id.UserID,
		Email:     id.Email,
		Role:      id.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *JWTCodec) verify(tokenStr, tokenType string) (*Claims, error) {
	token, err := c.parser.ParseWithClaims(tokenStr, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenType || claims.UserID == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Identity: Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		},
		TokenType: claims.TokenType,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
