package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cargo/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Keys set on the gin context by AuthRequired.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AuthRequired verifies the bearer token on every mutating request. Verified
// token hashes are cached in Redis so repeat requests skip signature
// verification; a cache outage degrades to full verification, never to a
// rejection.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}

		tokenHash := utils.HashToken(tokenString)
		cacheKey := utils.AuthCachePrefix + tokenHash

		ctx := context.Background()
		authCache := utils.AuthCacheClient
		if authCache != nil {
			cached, err := authCache.Get(ctx, cacheKey).Result()
			if err == nil {
				if sub, role, ok := splitCachedClaim(cached); ok {
					c.Set(ContextUserID, sub)
					c.Set(ContextRole, role)
					c.Next()
					return
				}
			} else if err != redis.Nil {
				zap.L().Warn("auth cache lookup failed, verifying token directly", zap.Error(err))
			}
		}

		claim, err := utils.VerifyToken(tokenString)
		if err != nil {
			msg := "Invalid credentials"
			if err == utils.ErrTokenExpired {
				msg = "Credentials expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if authCache != nil {
			ttl := utils.AuthCacheTTL
			if remaining := time.Until(claim.ExpiresAt); remaining > 0 && remaining < ttl {
				ttl = remaining
			}
			_ = authCache.Set(ctx, cacheKey, claim.SubjectID+"|"+claim.Role, ttl).Err()
		}

		c.Set(ContextUserID, claim.SubjectID)
		c.Set(ContextRole, claim.Role)
		c.Next()
	}
}

func splitCachedClaim(cached string) (sub, role string, ok bool) {
	parts := strings.SplitN(cached, "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
