package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/model"
	"marketplace/internal/permission"
	"marketplace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

type AuthMiddleware struct {
	userRepo repository.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo repository.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved actor on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := m.resolveActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth resolves the actor when a token is present but lets anonymous
// requests through. The offer list endpoint is public.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if actor, err := m.resolveActor(c); err == nil {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) resolveActor(c *gin.Context) (*permission.Actor, error) {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		return nil, fmt.Errorf("authorization required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject")
	}

	user, err := m.userRepo.FindByID(c.Request.Context(), uint(userID))
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return ActorFromUser(user), nil
}

// ActorFromUser builds the permission actor for a loaded account, feeding the
// profile's type as the role fallback.
func ActorFromUser(user *model.User) *permission.Actor {
	var profileType any
	if user.Profile != nil {
		profileType = user.Profile.Type
	}
	return permission.NewActor(user.ID, user.IsStaff, user.Type, profileType)
}

// CurrentActor returns the actor set by the auth middleware, or nil for an
// anonymous request.
func CurrentActor(c *gin.Context) *permission.Actor {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil
	}
	actor, ok := v.(*permission.Actor)
	if !ok {
		return nil
	}
	return actor
}
