package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSwagger(cfg SwaggerConfig, remoteAddr string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "disabled",
			cfg:        SwaggerConfig{Enabled: false},
			remoteAddr: "10.0.0.5:4321",
			wantStatus: http.StatusNotFound,
			wantBody:   "ERR_NOT_FOUND",
		},
		{
			name:       "enabled without allow list",
			cfg:        SwaggerConfig{Enabled: true},
			remoteAddr: "203.0.113.9:4321",
			wantStatus: http.StatusOK,
			wantBody:   "docs",
		},
		{
			name:       "single address allowed",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.0.2.10"}},
			remoteAddr: "192.0.2.10:4321",
			wantStatus: http.StatusOK,
		},
		{
			name:       "inside CIDR range",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}},
			remoteAddr: "10.20.30.40:4321",
			wantStatus: http.StatusOK,
		},
		{
			name:       "outside allow list",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "192.0.2.10"}},
			remoteAddr: "203.0.113.9:4321",
			wantStatus: http.StatusForbidden,
			wantBody:   "ERR_FORBIDDEN",
		},
		{
			name:       "unparseable entries allow nobody",
			cfg:        SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}},
			remoteAddr: "10.0.0.5:4321",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(tt.cfg, tt.remoteAddr)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}
