package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"rangeapi/config"
	"rangeapi/database"
	"rangeapi/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const tokenCookieName = "auth_token"

// GenerateToken creates a signed JWT for the user
func GenerateToken(userID string, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(lifetime).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// extractToken pulls the JWT from the auth cookie or the Authorization header
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(tokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// parseToken validates the JWT and returns the user ID claim
func parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid token claims")
	}
	return userID, nil
}

// GetUserFromRequest authenticates the request and loads the acting user with
// roles and memberships. On failure it aborts the request with 401 so callers
// only need to check the error and return.
func GetUserFromRequest(c *gin.Context) (models.User, error) {
	tokenString := extractToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return models.User{}, errors.New("no token provided")
	}

	userID, err := parseToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return models.User{}, err
	}

	var user models.User
	if err := database.DB.Preload("Roles").First(&user, "id = ?", userID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return models.User{}, err
	}

	if user.Blocked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Your account has been blocked"})
		return models.User{}, errors.New("account blocked")
	}

	return user, nil
}
