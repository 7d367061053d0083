// Package middleware provides authentication, logging, metrics and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"showcase/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// TokenIssuer is the iss claim of every issued token.
	TokenIssuer = "showcase-api"
	// TokenAudience is the aud claim of every issued token.
	TokenAudience = "showcase-client"
	// TokenTTL is how long an access token stays valid.
	TokenTTL = 7 * 24 * time.Hour
)

var (
	errMissingToken = errors.New("authorization required")
	errInvalidToken = errors.New("invalid or expired token")
)

// Authenticator validates bearer tokens and stores the caller in locals.
type Authenticator struct {
	secret []byte
	rdb    *redis.Client
}

// NewAuthenticator returns an Authenticator. rdb may be nil, in which case
// revoked-token checks are skipped.
func NewAuthenticator(secret string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secret), rdb: rdb}
}

// IssueToken signs an access token for userID.
func (a *Authenticator) IssueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": now.Add(TokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates a token string and returns its subject and jti.
func (a *Authenticator) ParseToken(tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, "", errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, "", errInvalidToken
	}
	jti, _ := claims["jti"].(string)
	return uint(userID), jti, nil
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (a *Authenticator) authenticate(c *fiber.Ctx) (uint, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, errMissingToken
	}
	userID, jti, err := a.ParseToken(tokenString)
	if err != nil {
		return 0, err
	}
	if jti != "" && a.rdb != nil {
		revoked, rerr := a.rdb.Exists(c.Context(), "blacklist:"+jti).Result()
		if rerr == nil && revoked > 0 {
			return 0, errInvalidToken
		}
	}
	return userID, nil
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	ctx := context.WithValue(c.UserContext(), UserIDKey, userID)
	c.SetUserContext(ctx)
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := a.authenticate(c)
		if errors.Is(err, errMissingToken) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and otherwise
// continues anonymously.
func (a *Authenticator) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := a.authenticate(c); err == nil {
			setUser(c, userID)
		}
		return c.Next()
	}
}

// UserID returns the caller set by RequireAuth or OptionalAuth.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
