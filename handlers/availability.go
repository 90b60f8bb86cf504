package handlers

import (
	"context"
	"fmt"
	"net/http"

	"cargo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckAvailability answers whether a vehicle is free for a date range.
// The answer is advisory: the binding check happens when the reservation
// is attempted. Results are cached briefly in Redis to absorb calendar
// browsing; a cache outage degrades to a direct read.
func (hb *HandlerBundle) CheckAvailability(c *gin.Context) {
	vehicleID := c.Param("id")
	start, err := parseDate(c.Query("start"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid availability request", "start must be formatted as YYYY-MM-DD")
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid availability request", "end must be formatted as YYYY-MM-DD")
		return
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s",
		utils.AvailabilityCachePrefix, vehicleID, c.Query("start"), c.Query("end"))
	ctx := context.Background()
	cache := utils.CacheClient
	if cache != nil {
		if cached, err := cache.Get(ctx, cacheKey).Result(); err == nil {
			c.JSON(http.StatusOK, gin.H{"vehicle_id": vehicleID, "available": cached == "1", "cached": true})
			return
		}
	}

	available, err := hb.Bookings.CheckAvailability(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	if cache != nil {
		value := "0"
		if available {
			value = "1"
		}
		if err := cache.Set(ctx, cacheKey, value, utils.AvailabilityCacheTTL).Err(); err != nil {
			utils.GetLogger().Warn("availability cache write failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"vehicle_id": vehicleID, "available": available})
}
