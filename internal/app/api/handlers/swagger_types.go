package handlers

import (
	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/internal/app/service/statistics"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/models"
	"github.com/fatflowers/fuelpos/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespHealth struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    HealthStatus             `json:"data"`
}

type RespLogin struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    auth.LoginResult         `json:"data"`
}

type RespFuelTypes struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.FuelType        `json:"data"`
}

type RespFuelType struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.FuelType          `json:"data"`
}

type RespTransaction struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Transaction       `json:"data"`
}

type RespTransactions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Transaction     `json:"data"`
}

type RespQRSession struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    QRSessionResponse        `json:"data"`
}

// RespListTransactions wraps ScanTransactionsResponse in the standard envelope.
type RespListTransactions struct {
	Code    response.APIResponseCode             `json:"code"`
	Message string                               `json:"message"`
	Data    transaction.ScanTransactionsResponse `json:"data"`
}

type RespListAuditLogs struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    auditlog.ScanResponse    `json:"data"`
}

// RespSalesStatistic wraps SalesStatisticResponse in the standard envelope.
type RespSalesStatistic struct {
	Code    response.APIResponseCode          `json:"code"`
	Message string                            `json:"message"`
	Data    statistics.SalesStatisticResponse `json:"data"`
}
