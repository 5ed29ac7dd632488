package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fatflowers/fuelpos/internal/app/service/catalog"
	"github.com/fatflowers/fuelpos/internal/app/service/qrsession"
	"github.com/fatflowers/fuelpos/internal/app/service/transaction"
	"github.com/fatflowers/fuelpos/internal/platform/qrimage"
	"github.com/fatflowers/fuelpos/pkg/response"
	"github.com/fatflowers/fuelpos/pkg/types"
)

// StartQRSessionRequest opens a QR payment. With fuel_type_id set, the sale
// is recorded once the payment succeeds and amount defaults to the catalog
// total; without it, amount is required and nothing is recorded.
type StartQRSessionRequest struct {
	Amount        *decimal.Decimal    `json:"amount,omitempty" swaggertype:"string" example:"250.00"`
	FuelTypeID    string              `json:"fuel_type_id,omitempty"`
	FuelAmount    decimal.Decimal     `json:"fuel_amount" swaggertype:"string" example:"10"`
	PaymentMethod types.PaymentMethod `json:"payment_method,omitempty" enums:"promptpay,qr_code"`
	Notes         string              `json:"notes,omitempty"`
}

type QRSessionResponse struct {
	qrsession.Session
	// ImageDataURL is the PNG QR as a data: URL, empty when no payload was issued.
	ImageDataURL string `json:"image_data_url,omitempty"`
}

func sessionResponse(mgr *qrsession.Manager, s qrsession.Session) *QRSessionResponse {
	out := &QRSessionResponse{Session: s}
	if png, err := mgr.Image(s.ID); err == nil {
		out.ImageDataURL = qrimage.DataURL(png)
	}
	return out
}

// @Summary      Start a QR payment session
// @Description  Issues a PromptPay payload and starts polling the bank. An amount that cannot be encoded yields a failed session.
// @Tags         QR
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body StartQRSessionRequest true "Session request"
// @Success      200  {object}  handlers.RespQRSession
// @Router       /api/v1/qr/sessions [post]
func ApiStartQRSession(mgr *qrsession.Manager, cat catalog.Lookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartQRSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		start := qrsession.StartRequest{}
		if req.FuelTypeID != "" {
			method := req.PaymentMethod
			if method == "" {
				method = types.PaymentMethodPromptPay
			}
			start.Sale = &qrsession.Sale{
				EmployeeID:    employeeID(c),
				FuelTypeID:    req.FuelTypeID,
				FuelAmount:    req.FuelAmount,
				PaymentMethod: method,
				Notes:         req.Notes,
				Meta:          requestMeta(c),
			}
		}

		switch {
		case req.Amount != nil:
			start.Amount = *req.Amount
		case start.Sale != nil:
			ft, err := cat.GetFuelType(c.Request.Context(), req.FuelTypeID)
			if err != nil {
				respondError(c, err)
				return
			}
			start.Amount = transaction.Total(req.FuelAmount, ft.PricePerLiter)
		default:
			badRequest(c, "amount or fuel_type_id is required")
			return
		}

		s, err := mgr.Start(c.Request.Context(), start)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sessionResponse(mgr, s)))
	}
}

// @Summary      Get a QR payment session
// @Tags         QR
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  handlers.RespQRSession
// @Router       /api/v1/qr/sessions/{id} [get]
func ApiGetQRSession(mgr *qrsession.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sessionResponse(mgr, s)))
	}
}

// @Summary      QR image
// @Description  Returns the session's QR code as a PNG.
// @Tags         QR
// @Produce      png
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {file}    binary
// @Router       /api/v1/qr/sessions/{id}/image [get]
func ApiQRSessionImage(mgr *qrsession.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		png, err := mgr.Image(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", png)
	}
}

// @Summary      QR session events
// @Description  Server-sent events: the current state first, then state changes, countdown ticks and retry notices. The stream ends when the session succeeds, is cancelled or is retried.
// @Tags         QR
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  qrsession.Event
// @Router       /api/v1/qr/sessions/{id}/events [get]
func ApiQRSessionEvents(mgr *qrsession.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, stop, err := mgr.Subscribe(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		defer stop()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent(string(ev.Type), ev)
				return true
			case <-c.Request.Context().Done():
				return false
			case <-shutdownFrom(c.Request.Context()):
				return false
			}
		})
	}
}

// @Summary      Cancel a QR payment session
// @Tags         QR
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  handlers.RespQRSession
// @Router       /api/v1/qr/sessions/{id}/cancel [post]
func ApiCancelQRSession(mgr *qrsession.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.Cancel(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&QRSessionResponse{Session: s}))
	}
}

// @Summary      Retry a QR payment session
// @Description  Replaces a failed or timed out session with a new one (new id, reference and deadline).
// @Tags         QR
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  handlers.RespQRSession
// @Router       /api/v1/qr/sessions/{id}/retry [post]
func ApiRetryQRSession(mgr *qrsession.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.Retry(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(sessionResponse(mgr, s)))
	}
}

type shutdownKey struct{}

// WithShutdown attaches a channel that is closed when the server starts
// shutting down, ending open event streams.
func WithShutdown(ctx context.Context, shutdown <-chan struct{}) context.Context {
	return context.WithValue(ctx, shutdownKey{}, shutdown)
}

// shutdownFrom returns nil, which blocks forever, when no channel is attached.
func shutdownFrom(ctx context.Context) <-chan struct{} {
	ch, _ := ctx.Value(shutdownKey{}).(<-chan struct{})
	return ch
}

func RegisterQRSessionRoutes(r gin.IRouter, mgr *qrsession.Manager, cat catalog.Lookup) {
	g := r.Group("/qr/sessions")
	g.POST("", ApiStartQRSession(mgr, cat))
	g.GET("/:id", ApiGetQRSession(mgr))
	g.GET("/:id/image", ApiQRSessionImage(mgr))
	g.GET("/:id/events", ApiQRSessionEvents(mgr))
	g.POST("/:id/cancel", ApiCancelQRSession(mgr))
	g.POST("/:id/retry", ApiRetryQRSession(mgr))
}
