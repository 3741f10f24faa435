package mw

import (
	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/parse"
)

const clientIPKey = "clientIP"

// ClientIP resolves the caller address once per request. When header is set and present
// its first hop wins, otherwise gin's view of the remote address is used. The address is
// normalized so IPv4 callers always appear as plain IPv4.
func ClientIP(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ip string
		if header != "" {
			ip = parse.ForwardedIP(c.GetHeader(header))
		}
		if ip == "" {
			ip = parse.NormalizeIP(c.ClientIP())
		}
		c.Set(clientIPKey, ip)
		c.Next()
	}
}

// GetClientIP returns the address stored by ClientIP, falling back to gin's view.
func GetClientIP(c *gin.Context) string {
	if ip := c.GetString(clientIPKey); ip != "" {
		return ip
	}
	return parse.NormalizeIP(c.ClientIP())
}
