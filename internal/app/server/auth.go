package server

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// handleAuth verifies the presented token and binds the identity to
// this connection. A failed verification is the one error that closes
// the socket.
func (s *server) handleAuth(c *client, token string) {
	identity, err := s.verifyToken(token)
	if err != nil {
		c.send(msgTypeAuthError, authErrorData{Reason: err.Error()})
		c.close()
		return
	}
	c.setIdentity(identity)
	s.registry.bind(identity, c)
	c.send(msgTypeAuthSuccess, authSuccessData{Email: identity})
}

// verifyToken validates the signed, time-limited token produced by the
// login exchange and extracts the identity it binds.
func (s *server) verifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("token missing email claim")
	}
	return email, nil
}
