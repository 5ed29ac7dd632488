package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	mw "github.com/fatflowers/fuelpos/internal/app/api/middleware"
	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/pkg/response"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// CreateTransactionRequest records a sale paid at the counter. QR sales go
// through /api/v1/qr/sessions and are recorded when the bank confirms them.
type CreateTransactionRequest struct {
	FuelTypeID    string              `json:"fuel_type_id" binding:"required"`
	FuelAmount    decimal.Decimal     `json:"fuel_amount" swaggertype:"string" example:"10.5"`
	PaymentMethod types.PaymentMethod `json:"payment_method" binding:"required" enums:"cash,card"`
	// TotalAmount is what the terminal displayed; the stored total is always
	// recomputed from the catalog price.
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty" swaggertype:"string"`
	Notes       string           `json:"notes"`
}

// @Summary      Record a counter sale
// @Description  Records a cash or card sale. The total is computed from the catalog price.
// @Tags         Transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTransactionRequest true "Sale"
// @Success      200  {object}  handlers.RespTransaction
// @Router       /api/v1/transactions [post]
func ApiCreateTransaction(rec *transaction.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.PaymentMethod.IsQR() {
			badRequest(c, fmt.Sprintf("payment method %s requires a QR session", req.PaymentMethod))
			return
		}
		tx, err := rec.Record(c.Request.Context(), &transaction.RecordRequest{
			EmployeeID:    employeeID(c),
			FuelTypeID:    req.FuelTypeID,
			FuelAmount:    req.FuelAmount,
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
			ClientTotal:   req.TotalAmount,
			Meta:          requestMeta(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(tx))
	}
}

// @Summary      Get transaction
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction id"
// @Success      200  {object}  handlers.RespTransaction
// @Router       /api/v1/transactions/{id} [get]
func ApiGetTransaction(svc *transaction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := svc.GetTransaction(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(tx))
	}
}

// @Summary      List an employee's transactions
// @Description  Cashiers may only list their own sales.
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Param        employee_id  path   string  true   "Employee id"
// @Param        limit        query  int     false  "Max rows (default 50)"
// @Success      200  {object}  handlers.RespTransactions
// @Router       /api/v1/employees/{employee_id}/transactions [get]
func ApiListEmployeeTransactions(svc *transaction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := c.Param("employee_id")
		if target != employeeID(c) {
			if err := auth.RequireRole(mw.Claims(c), types.EmployeeRoleManager, types.EmployeeRoleAdmin); err != nil {
				respondError(c, err)
				return
			}
		}
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				badRequest(c, "invalid limit")
				return
			}
			limit = n
		}
		items, err := svc.ListEmployeeTransactions(c.Request.Context(), target, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

func RegisterTransactionRoutes(r gin.IRouter, rec *transaction.Recorder, svc *transaction.Service) {
	r.POST("/transactions", ApiCreateTransaction(rec))
	r.GET("/transactions/:id", ApiGetTransaction(svc))
	r.GET("/employees/:employee_id/transactions", ApiListEmployeeTransactions(svc))
}
