package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VehanRajintha/ChatX/internal/apperr"
)

// Verifier validates bearer tokens. It accepts RSA-signed tokens when
// a public key is configured, HMAC-signed tokens when a shared secret
// is configured.
type Verifier struct {
	pub    *rsa.PublicKey
	secret []byte
}

func NewVerifier(pubKeyPath, secret string) (*Verifier, error) {
	v := &Verifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	if pubKeyPath != "" {
		b, err := os.ReadFile(pubKeyPath)
		if err != nil {
			return nil, err
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, err
		}
		v.pub = pub
	}
	if v.pub == nil && v.secret == nil {
		return nil, errors.New("jwt: neither public key nor secret configured")
	}
	return v, nil
}

// Verify parses the token and returns the session for its subject.
func (v *Verifier) Verify(tokenStr string) (Session, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if v.pub == nil {
				return nil, errors.New("rsa tokens not accepted")
			}
			return v.pub, nil
		case *jwt.SigningMethodHMAC:
			if v.secret == nil {
				return nil, errors.New("hmac tokens not accepted")
			}
			return v.secret, nil
		default:
			return nil, fmt.Errorf("unexpected signing method %v", t.Method.Alg())
		}
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("%w: invalid claims", apperr.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Session{}, fmt.Errorf("%w: missing subject", apperr.ErrUnauthenticated)
	}
	return Session{UserID: sub}, nil
}
