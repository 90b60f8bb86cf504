package handlers

import (
	"errors"
	"net/http"
	"time"

	bookingSvc "cargo/services/booking"
	paymentSvc "cargo/services/payment"
	"cargo/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers and their service dependencies.
type HandlerBundle struct {
	Bookings   bookingSvc.ReservationService
	Ledger     paymentSvc.Ledger
	Reconciler paymentSvc.Reconciler
}

// dateLayout is the wire format for rental dates. Dates are interpreted as
// UTC midnights; the rental interval is half-open, so back-to-back rentals
// sharing a boundary date do not collide.
const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// respondBookingError maps reservation service errors onto status codes.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case bookingSvc.IsValidation(err):
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
	case errors.Is(err, bookingSvc.ErrVehicleNotFound),
		errors.Is(err, bookingSvc.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, bookingSvc.ErrVehicleUnavailable):
		utils.JSONError(c, http.StatusConflict, "Vehicle unavailable", err.Error())
	case errors.Is(err, bookingSvc.ErrInvalidTransition):
		utils.JSONError(c, http.StatusConflict, "Illegal status transition", err.Error())
	case errors.Is(err, bookingSvc.ErrPolicyViolation):
		utils.JSONError(c, http.StatusBadRequest, "Cancellation not allowed", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

// respondPaymentError maps payment service errors onto status codes. A
// gateway decline is 402 so clients can distinguish "try another card" from
// their own bad input.
func respondPaymentError(c *gin.Context, err error) {
	var gwErr *paymentSvc.GatewayError
	switch {
	case errors.Is(err, paymentSvc.ErrInvalidAmount),
		errors.Is(err, paymentSvc.ErrUnsupportedMethod):
		utils.JSONError(c, http.StatusBadRequest, "Invalid payment request", err.Error())
	case errors.Is(err, paymentSvc.ErrPaymentNotFound),
		errors.Is(err, bookingSvc.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, paymentSvc.ErrBookingAlreadyPaid),
		errors.Is(err, paymentSvc.ErrPaymentAttemptPending),
		errors.Is(err, paymentSvc.ErrPaymentNotPending),
		errors.Is(err, paymentSvc.ErrRefundNotAllowed):
		utils.JSONError(c, http.StatusConflict, "Payment state conflict", err.Error())
	case errors.As(err, &gwErr):
		utils.JSONError(c, http.StatusPaymentRequired, "Payment declined", gwErr.Message)
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
