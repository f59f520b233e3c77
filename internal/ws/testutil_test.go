package ws

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func jwtClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
}
