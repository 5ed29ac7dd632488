package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/pkg/response"
)

// @Summary      List fuel types
// @Description  Returns the fuel types currently on sale.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespFuelTypes
// @Router       /api/v1/fuel_types [get]
func ApiListFuelTypes(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListAvailable(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

// @Summary      Get fuel type
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Fuel type id"
// @Success      200  {object}  handlers.RespFuelType
// @Router       /api/v1/fuel_types/{id} [get]
func ApiGetFuelType(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ft, err := svc.GetFuelType(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(ft))
	}
}

func RegisterFuelTypeRoutes(r gin.IRouter, svc *catalog.Service) {
	r.GET("/fuel_types", ApiListFuelTypes(svc))
	r.GET("/fuel_types/:id", ApiGetFuelType(svc))
}
