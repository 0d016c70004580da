package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls access to the API documentation
type SwaggerConfig struct {
	Enabled bool
	// AllowedIPs lists single addresses or CIDR ranges, empty allows all
	AllowedIPs []string
}

// SwaggerProtection answers 404 while the documentation is disabled and 403
// for callers outside the allow list. Entries that do not parse are ignored.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	var (
		nets []*net.IPNet
		ips  []net.IP
	)
	for _, entry := range cfg.AllowedIPs {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				nets = append(nets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
		}
	}
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeNotFound),
				dto.NewErrorResponse(dto.ErrCodeNotFound, "API documentation is not available"))
			return
		}
		if restricted && !ipAllowed(net.ParseIP(c.ClientIP()), ips, nets) {
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeForbidden),
				dto.NewErrorResponse(dto.ErrCodeForbidden, "access to API documentation is restricted"))
			return
		}
		c.Next()
	}
}

func ipAllowed(ip net.IP, ips []net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
