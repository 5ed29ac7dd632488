package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fatflowers/fuelpos/pkg/response"
)

type HealthStatus struct {
	Status           string `json:"status"`
	Database         string `json:"database"`
	ActiveQRSessions int    `json:"active_qr_sessions"`
}

// ActiveCounter reports how many QR sessions are waiting for payment.
type ActiveCounter interface {
	Active() int
}

// @Summary      Health check
// @Description  Reports database reachability and the number of QR sessions waiting for payment
// @Tags         System
// @Produce      json
// @Success      200  {object}  RespHealth
// @Router       /healthz [get]
func ApiHealthz(db *gorm.DB, sessions ActiveCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := HealthStatus{Status: "ok", Database: "ok", ActiveQRSessions: sessions.Active()}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			out.Status, out.Database = "degraded", "unreachable"
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

func RegisterHealthRoutes(r gin.IRouter, db *gorm.DB, sessions ActiveCounter) {
	r.GET("/healthz", ApiHealthz(db, sessions))
}
