package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/pkg/response"
)

type LoginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// @Summary      Employee login
// @Description  Exchanges an employee PIN for a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request"
// @Success      200  {object}  handlers.RespLogin
// @Router       /api/v1/auth/login [post]
func ApiLogin(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.Login(c.Request.Context(), req.PIN, requestMeta(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Employee logout
// @Description  Records the logout in the audit log. Tokens are stateless and simply expire.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/auth/logout [post]
func ApiLogout(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.Logout(c.Request.Context(), employeeID(c), requestMeta(c))
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// RegisterAuthRoutes mounts login on the public group and logout on the
// authenticated one.
func RegisterAuthRoutes(public, protected gin.IRouter, svc *auth.Service) {
	public.POST("/auth/login", ApiLogin(svc))
	protected.POST("/auth/logout", ApiLogout(svc))
}
