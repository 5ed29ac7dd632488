package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/statistics"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/pkg/response"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// @Summary      List Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of recorded sales.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body types.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListTransactions
// @Router       /api/v1/admin/list_transactions [post]
func ApiListTransactions(svc *transaction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.ScanTransactions(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Audit Logs (Admin)
// @Description  Retrieves a paginated and filterable list of audit entries.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body types.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListAuditLogs
// @Router       /api/v1/admin/list_audit_logs [post]
func ApiListAuditLogs(svc *auditlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.Scan(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Sales Statistics (Admin)
// @Description  Retrieves daily sales statistics over completed transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.SalesStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespSalesStatistic
// @Router       /api/v1/admin/get_sales_statistic [post]
func ApiGetSalesStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SalesStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.GetSalesStatistic(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, tx *transaction.Service, audit *auditlog.Service, stats *statistics.Service) {
	r.POST("/list_transactions", ApiListTransactions(tx))
	r.POST("/list_audit_logs", ApiListAuditLogs(audit))
	r.POST("/get_sales_statistic", ApiGetSalesStatistic(stats))
}
