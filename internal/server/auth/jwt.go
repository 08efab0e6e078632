// Package auth mints and checks the HS256 tokens that identify the teacher
// calling the attendance API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the teacher id.
type Claims struct {
	jwt.RegisteredClaims
	TeacherID string `json:"teacher_id"`
}

func GenerateToken(teacherID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TeacherID: teacherID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetTeacherIDFromToken validates tokenString and returns its teacher id.
// Expired tokens yield common.ErrTokenExpired, anything else unusable
// wraps common.ErrInvalidToken.
func GetTeacherIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.TeacherID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.TeacherID, nil
}
