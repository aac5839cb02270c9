package authjwt

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/daleel/api/internal/types"
)

// Config defines the config for the JWT middleware.
type Config struct {
	// The EC public key for validating ES256 tokens.
	PublicKey string
	// The claim key where the UserContext is stored.
	ClaimKey string
	// The context key to store the UserContext.
	UserCtxName string
}

// New creates a new middleware handler.
func New(cfg Config) fiber.Handler {
	// Parse the key once on startup.
	ecPublicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKey))
	if err != nil {
		panic(fmt.Sprintf("failed to parse EC public key: %v", err))
	}

	if cfg.ClaimKey == "" {
		cfg.ClaimKey = "claim"
	}
	if cfg.UserCtxName == "" {
		cfg.UserCtxName = types.UserCtxName
	}

	return func(c *fiber.Ctx) error {
		var tokenString string

		// Authorization header first (API clients), then access_token cookie.
		authHeader := c.Get(types.HeaderAuthorization)
		if authHeader != "" && strings.HasPrefix(authHeader, types.BearerPrefix) {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			tokenString = c.Cookies("access_token")
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid JWT",
			})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return ecPublicKey, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid token",
				"details": err.Error(),
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid token claims",
			})
		}

		if exp, ok := claims["exp"].(float64); ok {
			if int64(exp) < time.Now().Unix() {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"code":    "UNAUTHORIZED",
					"message": "Token has expired",
				})
			}
		}

		claimData, claimOk := claims[cfg.ClaimKey].(map[string]interface{})
		if !claimOk {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid token claim format",
			})
		}

		userCtx, err := mapToUserContext(claimData)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid user context in token",
				"details": err.Error(),
			})
		}

		if !userCtx.Active {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "User account is inactive",
			})
		}

		c.Locals(cfg.UserCtxName, userCtx)
		return c.Next()
	}
}

// mapToUserContext decodes the claim payload into a UserContext.
func mapToUserContext(claimData map[string]interface{}) (types.UserContext, error) {
	var user types.UserContext

	id, ok := claimData["id"].(float64)
	if !ok {
		return user, fmt.Errorf("missing or invalid user id claim")
	}
	user.ID = int64(id)

	user.Username, _ = claimData["username"].(string)
	if user.Username == "" {
		return user, fmt.Errorf("missing username claim")
	}
	user.Name, _ = claimData["name"].(string)

	if active, ok := claimData["active"].(bool); ok {
		user.Active = active
	}

	if roles, ok := claimData["roles"].([]interface{}); ok {
		for _, r := range roles {
			if rid, ok := r.(float64); ok {
				user.Roles = append(user.Roles, int64(rid))
			}
		}
	}
	if names, ok := claimData["roleNames"].([]interface{}); ok {
		for _, n := range names {
			if name, ok := n.(string); ok {
				user.RoleNames = append(user.RoleNames, name)
			}
		}
	}

	user.ViewSimpleHistory, _ = claimData["viewSimpleHistory"].(bool)
	user.ViewFullHistory, _ = claimData["viewFullHistory"].(bool)
	user.CanSelfAssign, _ = claimData["canSelfAssign"].(bool)
	user.CanEditLocations, _ = claimData["canEditLocations"].(bool)
	user.CanExport, _ = claimData["canExport"].(bool)
	user.CanImportWeb, _ = claimData["canImportWeb"].(bool)

	return user, nil
}
