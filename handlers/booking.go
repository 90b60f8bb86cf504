package handlers

import (
	"net/http"
	"strconv"

	bookingRepo "cargo/database/repository/booking"
	"cargo/middleware"
	"cargo/models"
	bookingSvc "cargo/services/booking"
	"cargo/utils"

	"github.com/gin-gonic/gin"
)

// CreateBooking reserves a vehicle for the authenticated user.
func (hb *HandlerBundle) CreateBooking(c *gin.Context) {
	var input struct {
		VehicleID      string `json:"vehicle_id" binding:"required"`
		StartDate      string `json:"start_date" binding:"required"`
		EndDate        string `json:"end_date" binding:"required"`
		PickupLocation string `json:"pickup_location" binding:"required"`
		ReturnLocation string `json:"return_location" binding:"required"`
		WithDriver     bool   `json:"with_driver"`
		Notes          string `json:"booking_notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", "start_date must be formatted as YYYY-MM-DD")
		return
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", "end_date must be formatted as YYYY-MM-DD")
		return
	}

	booking, err := hb.Bookings.Create(c.Request.Context(), bookingSvc.CreateBookingRequest{
		VehicleID:      input.VehicleID,
		UserID:         c.GetString(middleware.ContextUserID),
		Start:          start,
		End:            end,
		PickupLocation: input.PickupLocation,
		ReturnLocation: input.ReturnLocation,
		WithDriver:     input.WithDriver,
		Notes:          input.Notes,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// ListBookings is the staff listing with status/vehicle/date filters.
func (hb *HandlerBundle) ListBookings(c *gin.Context) {
	var f bookingRepo.Filter

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseBookingStatus(raw)
		if !ok {
			utils.JSONError(c, http.StatusBadRequest, "Invalid filter", "unknown booking status")
			return
		}
		f.Status = status
	}
	f.VehicleID = c.Query("vehicle_id")
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

	bookings, err := hb.Bookings.List(c.Request.Context(), f)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ListMyBookings lists the authenticated user's own bookings.
func (hb *HandlerBundle) ListMyBookings(c *gin.Context) {
	var status models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := models.ParseBookingStatus(raw)
		if !ok {
			utils.JSONError(c, http.StatusBadRequest, "Invalid filter", "unknown booking status")
			return
		}
		status = parsed
	}
	page, limit := parsePaging(c)

	bookings, err := hb.Bookings.ListForUser(c.Request.Context(),
		c.GetString(middleware.ContextUserID), status, page, limit)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GetBooking retrieves one booking. Regular users only see their own;
// staff see everything.
func (hb *HandlerBundle) GetBooking(c *gin.Context) {
	booking, err := hb.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	if !callerMayAccess(c, booking.UserID) {
		utils.JSONError(c, http.StatusNotFound, "Not found", "booking not found")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RescheduleBooking moves a booking to new dates, re-checking availability.
func (hb *HandlerBundle) RescheduleBooking(c *gin.Context) {
	var input struct {
		StartDate string `json:"start_date" binding:"required"`
		EndDate   string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}
	start, err := parseDate(input.StartDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", "start_date must be formatted as YYYY-MM-DD")
		return
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", "end_date must be formatted as YYYY-MM-DD")
		return
	}

	if !hb.bookingOwnedByCaller(c) {
		return
	}
	booking, err := hb.Bookings.Reschedule(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus is the staff lifecycle endpoint (confirm, ongoing,
// completed, rejected). Cancellation has its own endpoint and policy.
func (hb *HandlerBundle) UpdateBookingStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}
	status, ok := models.ParseBookingStatus(input.Status)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", "unknown booking status")
		return
	}

	booking, err := hb.Bookings.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking cancels a booking under the cancellation policy. The
// booking record survives with status cancelled.
func (hb *HandlerBundle) CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// Body is optional on cancel.
	_ = c.ShouldBindJSON(&input)

	if !hb.bookingOwnedByCaller(c) {
		return
	}
	booking, err := hb.Bookings.Cancel(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// bookingOwnedByCaller enforces ownership on user-facing mutations. It
// writes the error response itself and reports whether to continue.
func (hb *HandlerBundle) bookingOwnedByCaller(c *gin.Context) bool {
	booking, err := hb.Bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBookingError(c, err)
		return false
	}
	if !callerMayAccess(c, booking.UserID) {
		utils.JSONError(c, http.StatusNotFound, "Not found", "booking not found")
		return false
	}
	return true
}

func callerMayAccess(c *gin.Context, ownerID string) bool {
	role := c.GetString(middleware.ContextRole)
	if role == utils.RoleAdmin || role == utils.RoleBookingStaff {
		return true
	}
	return c.GetString(middleware.ContextUserID) == ownerID
}

func parsePaging(c *gin.Context) (page, limit int64) {
	page, _ = strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
