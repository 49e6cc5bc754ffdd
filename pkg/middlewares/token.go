package middlewares

import (
	t_token "video_sharing_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	//HeaderToken token in Authorization header prefix
	HeaderToken = "Bearer "

	//QueryToken token in query name
	QueryToken = "auth"

	//TokenUserID get user id from token, set c.locals name
	TokenUserID = "UserID"
	//TokenUsername get username from token, set c.locals name
	TokenUsername = "Username"
	//TokenGroups get groups from token, set c.locals name
	TokenGroups = "Groups"
)

// JWTMiddleware validates JWT in the Authorization header
// 通過驗證後把 pre-validated principal 放進 c.Locals，handler 不再碰 token
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		var tokenStr string
		auth := c.Get(fiber.HeaderAuthorization)
		if len(auth) > len(HeaderToken) && auth[:len(HeaderToken)] == HeaderToken {
			tokenStr = auth[len(HeaderToken):]
		}

		// 如果 header 中沒有 token，則嘗試從查詢參數中獲取
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}

		// 如果仍然沒有 token，則返回未授權錯誤
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		// Parse and validate token
		token, err := jwt.ParseWithClaims(tokenStr, &t_token.Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Unexpected signing method")
			}
			return t_token.JWTSecret, nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		// Extract claims and pass them to the context
		if claims, ok := token.Claims.(*t_token.Claims); ok && token.Valid {
			c.Locals(TokenUserID, claims.UserID)
			c.Locals(TokenUsername, claims.Username)
			c.Locals(TokenGroups, claims.Groups)
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		return c.Next()
	}
}
