// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// AvailabilityCachePrefix is the prefix for advisory availability cache keys.
const AvailabilityCachePrefix = "avail:"

// AvailabilityCacheTTL keeps advisory availability answers only briefly;
// the answer is stale-tolerant by contract.
const AvailabilityCacheTTL = 30 * time.Second

// Roles recognized by the authorization allow-lists.
const (
	RoleAdmin        = "admin"
	RoleBookingStaff = "booking_staff"
	RoleUser         = "user"
)
