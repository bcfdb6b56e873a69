package handler

import (
	"strings"

	"shopauth/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// extractClientContext snapshots the client metadata persisted with a
// session. Extraction never fails; absent headers produce empty fields.
func extractClientContext(c echo.Context) entity.ClientContext {
	userAgent := c.Request().UserAgent()
	if len(userAgent) > entity.MaxUserAgentLength {
		userAgent = userAgent[:entity.MaxUserAgentLength]
	}

	return entity.ClientContext{
		IPAddress:   clientIP(c),
		UserAgent:   userAgent,
		DeviceLabel: deriveDeviceLabel(userAgent),
	}
}

// clientIP prefers the leftmost X-Forwarded-For hop, which is the original
// client when the proxy chain is trusted, and falls back to the socket peer.
func clientIP(c echo.Context) string {
	forwarded := c.Request().Header.Get("X-Forwarded-For")
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	return c.RealIP()
}

// deriveDeviceLabel buckets the user agent into a coarse device class. The
// label is display metadata for the session list, nothing authorizes on it.
func deriveDeviceLabel(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}

	lowered := strings.ToLower(userAgent)
	switch {
	case strings.Contains(lowered, "ipad") || strings.Contains(lowered, "tablet"):
		return "tablet"
	case strings.Contains(lowered, "mobile") || strings.Contains(lowered, "android") || strings.Contains(lowered, "iphone"):
		return "mobile"
	default:
		return "desktop"
	}
}
