// Package auth issues and verifies the JWTs used for sessions and email
// verification, and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moi/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the purpose a token was minted for.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindVerify  Kind = "verify"
)

// Claims are the JWT claims carried by every token. Subject holds the user's
// email address.
type Claims struct {
	jwt.RegisteredClaims
	Kind   Kind `json:"kind"`
	Verify bool `json:"verify,omitempty"`
}

// Options configures a Codec.
type Options struct {
	Secret          []byte
	Algorithm       string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
}

// Codec signs and decodes tokens with a single HMAC key.
type Codec struct {
	secret  []byte
	method  jwt.SigningMethod
	ttls    map[Kind]time.Duration
	nowFunc func() time.Time
}

// NewCodec validates opts and builds a Codec. Only HS256, HS384 and HS512
// are accepted.
func NewCodec(opts Options) (*Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	var method jwt.SigningMethod
	switch opts.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", opts.Algorithm)
	}
	return &Codec{
		secret: opts.Secret,
		method: method,
		ttls: map[Kind]time.Duration{
			KindAccess:  opts.AccessTTL,
			KindRefresh: opts.RefreshTTL,
			KindVerify:  opts.VerificationTTL,
		},
		nowFunc: time.Now,
	}, nil
}

// TTL returns the configured lifetime for kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	return c.ttls[kind]
}

// Encode mints a token of the given kind for subject. jti is optional and
// ends up in the "jti" claim. The absolute expiry is returned alongside.
func (c *Codec) Encode(kind Kind, subject, jti string) (string, time.Time, error) {
	ttl, ok := c.ttls[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}
	now := c.nowFunc()
	expires := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Kind:   kind,
		Verify: kind == KindVerify,
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// IssueAccess mints an access token for email.
func (c *Codec) IssueAccess(email string) (string, time.Time, error) {
	return c.Encode(KindAccess, email, "")
}

// IssueRefresh mints a refresh token for email with a fresh random jti.
func (c *Codec) IssueRefresh(email string) (token string, jti string, expires time.Time, err error) {
	jti = uuid.NewString()
	token, expires, err = c.Encode(KindRefresh, email, jti)
	return token, jti, expires, err
}

// IssueVerification mints an email verification token for email.
func (c *Codec) IssueVerification(email string) (string, time.Time, error) {
	return c.Encode(KindVerify, email, "")
}

// Decode verifies the signature and expiry of token and checks that it was
// minted for kind.
//
// Errors: common.ErrTokenExpired for a correctly signed but expired token,
// common.ErrInvalidTokenType for a kind mismatch (or a verification token
// without the verify marker), common.ErrInvalidToken for anything else.
func (c *Codec) Decode(token string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Kind != kind {
		return nil, common.ErrInvalidTokenType
	}
	if kind == KindVerify && !claims.Verify {
		return nil, common.ErrInvalidTokenType
	}
	return claims, nil
}
