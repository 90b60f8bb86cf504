package handlers

import (
	"io"
	"net/http"

	"cargo/config"
	paymentRepo "cargo/database/repository/payment"
	"cargo/models"
	paymentSvc "cargo/services/payment"
	"cargo/utils"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the webhook HMAC signature.
const SignatureHeader = "X-Payment-Signature"

// CreatePayment records a payment attempt and captures it immediately.
func (hb *HandlerBundle) CreatePayment(c *gin.Context) {
	var input struct {
		BookingID string `json:"booking_id" binding:"required"`
		Amount    int64  `json:"amount" binding:"required"`
		Method    string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
		return
	}

	payment, err := hb.Ledger.CreatePayment(c.Request.Context(), paymentSvc.CreatePaymentRequest{
		BookingID: input.BookingID,
		Amount:    input.Amount,
		Method:    input.Method,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	captured, err := hb.Ledger.Capture(c.Request.Context(), payment.ID)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, captured)
}

// PayBooking settles a booking's full rental amount in one call.
func (hb *HandlerBundle) PayBooking(c *gin.Context) {
	var input struct {
		Method string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
		return
	}

	payment, err := hb.Ledger.PayBooking(c.Request.Context(), c.Param("id"), input.Method)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayment retrieves one payment.
func (hb *HandlerBundle) GetPayment(c *gin.Context) {
	payment, err := hb.Ledger.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPayments is the staff listing with status and date filters.
func (hb *HandlerBundle) ListPayments(c *gin.Context) {
	var f paymentRepo.Filter

	if raw := c.Query("status"); raw != "" {
		switch status := models.PaymentStatus(raw); status {
		case models.PaymentPending, models.PaymentCompleted,
			models.PaymentFailed, models.PaymentRefunded:
			f.Status = status
		default:
			utils.JSONError(c, http.StatusBadRequest, "Invalid filter", "unknown payment status")
			return
		}
	}
	f.BookingID = c.Query("booking_id")
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid filter", "from must be formatted as YYYY-MM-DD")
			return
		}
		f.FromDate = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid filter", "to must be formatted as YYYY-MM-DD")
			return
		}
		f.ToDate = to
	}
	f.Page, f.Limit = parsePaging(c)

	payments, err := hb.Ledger.List(c.Request.Context(), f)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// ListBookingPayments lists every attempt recorded against a booking.
func (hb *HandlerBundle) ListBookingPayments(c *gin.Context) {
	payments, err := hb.Ledger.BookingPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// RefundPayment reverses a completed payment. Staff only.
func (hb *HandlerBundle) RefundPayment(c *gin.Context) {
	var input struct {
		Amount int64  `json:"amount" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
		return
	}

	payment, err := hb.Ledger.Refund(c.Request.Context(), c.Param("id"), input.Amount, input.Reason)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ListPaymentMethods exposes the configured method allow-list.
func (hb *HandlerBundle) ListPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"payment_methods": config.AppConfig.PaymentMethods})
}

// PaymentWebhook receives provider callbacks. The signature is verified
// over the raw body before anything is parsed; redeliveries settle as 200
// no-ops so the provider stops retrying.
func (hb *HandlerBundle) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook", "unreadable body")
		return
	}

	err = hb.Reconciler.Apply(c.Request.Context(), c.GetHeader(SignatureHeader), body)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case err == paymentSvc.ErrBadSignature:
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook", err.Error())
	case err == paymentSvc.ErrMalformedPayload, err == paymentSvc.ErrUnhandledEvent:
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook", err.Error())
	case err == paymentRepo.ErrPaymentNotFound:
		utils.JSONError(c, http.StatusNotFound, "Not found", "unknown transaction reference")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
