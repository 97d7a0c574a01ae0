package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type tokenSigner struct {
	secret []byte
}

func (t *tokenSigner) sign(s *Session) (string, error) {
	claims := &sessionClaims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.AccountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *tokenSigner) parse(tokenString string) (*Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("malformed session token")
	}
	s := &Session{
		ID:        claims.ID,
		AccountID: claims.Subject,
		Email:     claims.Email,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
