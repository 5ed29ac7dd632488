package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/fuelpos/internal/app/api/middleware"
	"github.com/fatflowers/fuelpos/internal/app/service/auditlog"
	"github.com/fatflowers/fuelpos/internal/app/service/auth"
	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/app/service/qrsession"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/pkg/emvqr"
	"github.com/fatflowers/fuelpos/pkg/response"
	"github.com/fatflowers/fuelpos/pkg/types"
)

func errorCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, qrsession.ErrSessionNotFound),
		errors.Is(err, qrsession.ErrNoImage),
		errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, catalog.ErrFuelTypeNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, qrsession.ErrInvalidTransition),
		errors.Is(err, transaction.ErrAlreadyRecorded):
		return response.APIResponseCodeConflict
	case errors.Is(err, qrsession.ErrInvalidRequest),
		errors.Is(err, transaction.ErrInvalidRequest),
		errors.Is(err, transaction.ErrFuelTypeUnavailable),
		errors.Is(err, types.ErrInvalidScanRequest),
		errors.Is(err, emvqr.ErrEncoding):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, auth.ErrInvalidPIN), errors.Is(err, auth.ErrInvalidToken):
		return response.APIResponseCodeUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return response.APIResponseCodeForbidden
	}
	return response.APIResponseCodeError
}

func respondError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, response.Fail(errorCode(err), err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, response.Fail(response.APIResponseCodeBadRequest, msg))
}

func requestMeta(c *gin.Context) auditlog.RequestMeta {
	return auditlog.RequestMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// employeeID is the id of the authenticated employee, "" on public routes.
func employeeID(c *gin.Context) string {
	if claims := mw.Claims(c); claims != nil {
		return claims.EmployeeID
	}
	return ""
}
