package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// AccessCodeHeader carries the access code on lookups, which have no body
const AccessCodeHeader = "X-Access-Code"

// JournalHandler serves earlier return requests from the audit journal.
// Callers present the same credential as for submitting a return.
type JournalHandler struct {
	journal returns.AuditJournal
	auth    returns.Authenticator
	packets returns.PacketReader
	realm   string
}

// NewJournalHandler creates the lookup endpoints. auth is nil while secrets
// are missing and packets is nil when archiving is off.
func NewJournalHandler(journal returns.AuditJournal, auth returns.Authenticator, packets returns.PacketReader, realm string) *JournalHandler {
	return &JournalHandler{journal: journal, auth: auth, packets: packets, realm: realm}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/returns", h.List)
	rg.GET("/returns/:requestId", h.Get)
	rg.GET("/returns/:requestId/packet", h.Packet)
}

// Get godoc
// @Summary      Look up a return request
// @Description  Returns the audit record written for a request id
// @Tags         returns
// @Produce      json
// @Security     BasicAuth
// @Param        requestId  path  string  true  "Request id"
// @Success      200 {object} dto.JournalEntryResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /returns/{requestId} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	rec, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.JournalEntryResponse{OK: true, Record: *rec})
}

// List godoc
// @Summary      List return requests by tracking number
// @Description  Returns every audit record for a tracking number, newest first
// @Tags         returns
// @Produce      json
// @Security     BasicAuth
// @Param        trackingNumber  query  string  true  "Carrier tracking number"
// @Success      200 {object} dto.JournalListResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Router       /returns [get]
func (h *JournalHandler) List(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	tracking := strings.TrimSpace(c.Query("trackingNumber"))
	if tracking == "" {
		Fail(c, dto.ErrCodeValidation, "trackingNumber query parameter is required")
		return
	}

	records, err := h.journal.FindByTrackingNumber(c.Request.Context(), tracking)
	if err != nil {
		logger.GetGinLogger(c).Error("journal lookup failed", zap.String("tracking_number", tracking), zap.Error(err))
		Fail(c, dto.ErrCodeInternal, "journal lookup failed")
		return
	}
	if records == nil {
		records = []returns.AuditRecord{}
	}
	c.JSON(http.StatusOK, dto.JournalListResponse{OK: true, Records: records})
}

// Packet godoc
// @Summary      Download an archived packet
// @Description  Streams the composed PDF that was mailed for a request
// @Tags         returns
// @Produce      application/pdf
// @Security     BasicAuth
// @Param        requestId  path  string  true  "Request id"
// @Success      200 {file} binary
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /returns/{requestId}/packet [get]
func (h *JournalHandler) Packet(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	if h.packets == nil {
		Fail(c, dto.ErrCodeNotFound, "packet archive is not enabled")
		return
	}
	rec, ok := h.find(c)
	if !ok {
		return
	}

	rc, err := h.openPacket(c, rec)
	if err != nil {
		if errors.Is(err, returns.ErrPacketNotFound) {
			Fail(c, dto.ErrCodeNotFound, "packet not archived")
			return
		}
		logger.GetGinLogger(c).Error("packet read failed", zap.String("request_id", rec.RequestID), zap.Error(err))
		Fail(c, dto.ErrCodeInternal, "packet read failed")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s.pdf"`, rec.RequestID),
	})
}

// openPacket tries the month the request started in, then the month it was
// last updated in, since archiving may cross a month boundary.
func (h *JournalHandler) openPacket(c *gin.Context, rec *returns.AuditRecord) (io.ReadCloser, error) {
	ctx := c.Request.Context()
	key := returns.ArchiveKey(rec.RequestID, rec.CreatedAt)
	rc, err := h.packets.Open(ctx, key)
	if !errors.Is(err, returns.ErrPacketNotFound) || rec.LastCheckedAt.IsZero() {
		return rc, err
	}
	if later := returns.ArchiveKey(rec.RequestID, rec.LastCheckedAt); later != key {
		return h.packets.Open(ctx, later)
	}
	return nil, err
}

func (h *JournalHandler) find(c *gin.Context) (*returns.AuditRecord, bool) {
	requestID := c.Param("requestId")
	rec, err := h.journal.FindByRequestID(c.Request.Context(), requestID)
	switch {
	case errors.Is(err, returns.ErrRecordNotFound):
		Fail(c, dto.ErrCodeNotFound, "return request not found")
		return nil, false
	case err != nil:
		logger.GetGinLogger(c).Error("journal lookup failed", zap.String("request_id", requestID), zap.Error(err))
		Fail(c, dto.ErrCodeInternal, "journal lookup failed")
		return nil, false
	}
	return rec, true
}

func (h *JournalHandler) authorize(c *gin.Context) bool {
	if h.auth == nil {
		Fail(c, dto.ErrCodeConfig, "server misconfiguration")
		return false
	}
	err := h.auth.Authenticate(c.Request.Context(), returns.Credentials{
		Authorization: c.GetHeader("Authorization"),
		AccessCode:    c.GetHeader(AccessCodeHeader),
	})
	if err == nil {
		return true
	}
	var unauth *returns.UnauthorizedError
	if !errors.As(err, &unauth) {
		logger.GetGinLogger(c).Error("credential check failed", zap.Error(err))
		Fail(c, dto.ErrCodeInternal, "credential check failed")
		return false
	}
	if h.realm != "" {
		c.Header("WWW-Authenticate", `Basic realm="`+h.realm+`"`)
	}
	Fail(c, dto.ErrCodeUnauthorized, "unauthorized")
	return false
}
