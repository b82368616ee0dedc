package studio

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	SessionId string `json:"session_id"`
	jwt.RegisteredClaims
}

func (s *service) generateJWT(sessionId string) (string, error) {
	claims := Claims{
		SessionId: sessionId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *service) parseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionId == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// authorize checks that token was issued for sessionId.
func (s *service) authorize(sessionId, token string) error {
	claims, err := s.parseJWT(token)
	if err != nil {
		return err
	}

	if claims.SessionId != sessionId {
		return ErrInvalidToken
	}

	return nil
}
