package middleware

import (
	"strings"

	"fulfillment-app/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token and stores userID and
// companyID in locals. Every tenant-scoped handler reads those locals
// instead of trusting anything in the request payload.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		header := ctx.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "missing bearer token",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or expired token",
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid token claims",
			})
		}

		userID, ok1 := claims["user_id"].(float64)
		companyID, ok2 := claims["company_id"].(float64)
		if !ok1 || !ok2 {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid token claims",
			})
		}

		ctx.Locals("userID", uint(userID))
		ctx.Locals("companyID", uint(companyID))
		if role, ok := claims["role"].(string); ok {
			ctx.Locals("role", role)
		}

		return ctx.Next()
	}
}
