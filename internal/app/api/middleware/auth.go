package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/response"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// KeyClaims holds the *auth.Claims of the authenticated employee in gin.Context.
const KeyClaims = "claims"

type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// scopes the request to the employee it names.
func AuthMiddleware(tokens TokenParser, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusOK, response.Fail(response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}
		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, response.Fail(response.APIResponseCodeUnauthorized, err.Error()))
			return
		}

		c.Set(KeyClaims, claims)
		c.Set(string(logctx.KeyEmployeeID), claims.EmployeeID)
		c.Request = c.Request.WithContext(logctx.WithEmployeeID(c.Request.Context(), claims.EmployeeID))
		setLogger(c, logctx.FromGin(c, base).With("employee_id", claims.EmployeeID))
		c.Next()
	}
}

// RequireRole aborts unless the authenticated employee has one of roles.
func RequireRole(roles ...types.EmployeeRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(Claims(c), roles...); err != nil {
			code := response.APIResponseCodeForbidden
			if errors.Is(err, auth.ErrInvalidToken) {
				code = response.APIResponseCodeUnauthorized
			}
			c.AbortWithStatusJSON(http.StatusOK, response.Fail(code, err.Error()))
			return
		}
		c.Next()
	}
}

// Claims returns the authenticated employee's claims, or nil.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
