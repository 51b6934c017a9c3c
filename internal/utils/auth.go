package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/xelth-com/eckassets/internal/access"
)

// AccessTokenTTL is how long a login stays valid
const AccessTokenTTL = 12 * time.Hour

// Claims carries the caller identity inside an access token
type Claims struct {
	CompanyID uint   `json:"companyId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken signs an access token for id
func GenerateToken(id access.Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: id.CompanyID,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token and returns the identity it carries
func ValidateToken(tokenString string, secret string) (access.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return access.Identity{}, err
	}
	if !token.Valid {
		return access.Identity{}, errors.New("invalid token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return access.Identity{}, errors.New("invalid token: bad subject")
	}
	if claims.Role == "" {
		return access.Identity{}, errors.New("invalid token: missing role")
	}
	return access.Identity{UserID: uint(userID), CompanyID: claims.CompanyID, Role: claims.Role}, nil
}
