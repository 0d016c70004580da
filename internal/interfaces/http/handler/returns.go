package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apprt "github.com/returnmail/backend/internal/application/returns"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ReturnProcessor runs one request through the return pipeline
type ReturnProcessor interface {
	Process(ctx context.Context, in apprt.ProcessInput) (*apprt.Result, error)
	Misconfigured() []string
}

// ReturnsHandler is the inbound return endpoint
type ReturnsHandler struct {
	svc   ReturnProcessor
	realm string
}

// NewReturnsHandler creates the handler. realm is announced in the
// WWW-Authenticate header of 401 responses; empty omits the header.
func NewReturnsHandler(svc ReturnProcessor, realm string) *ReturnsHandler {
	return &ReturnsHandler{svc: svc, realm: realm}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReturnsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/returns", h.Create)
}

// Create godoc
// @Summary      Submit a return request
// @Description  Issues a prepaid return label, composes the packet and mails it.
// @Description  Answers once the packet was mailed or a stage failed.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        request body dto.CreateReturnRequest true "Return request"
// @Success      200 {object} dto.CreateReturnResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      413 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Failure      502 {object} dto.ErrorResponse
// @Router       /returns [post]
func (h *ReturnsHandler) Create(c *gin.Context) {
	log := logger.GetGinLogger(c)

	body, bodyErr := decodeReturnRequest(c.Request.Body)
	if bodyErr != nil {
		if isBodyTooLarge(bodyErr) {
			Fail(c, dto.ErrCodeRequestTooLarge, "request body exceeds maximum allowed size")
			return
		}
		log.Debug("return request body not decodable", zap.Error(bodyErr))
		// The pipeline still checks configuration and the caller first
		body = &dto.CreateReturnRequest{}
	}

	res, err := h.svc.Process(c.Request.Context(), apprt.ProcessInput{
		Request: body.ReturnRequest,
		Credentials: returns.Credentials{
			Authorization: c.GetHeader("Authorization"),
			AccessCode:    body.AccessCode,
		},
		BodyErr: bodyErr,
	})
	if err != nil {
		status, resp := dto.NewPipelineErrorResponse(err)
		if status == http.StatusUnauthorized && h.realm != "" {
			c.Header("WWW-Authenticate", `Basic realm="`+h.realm+`"`)
		}
		_ = c.Error(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.CreateReturnResponse{
		OK:             true,
		RequestID:      res.RequestID,
		TrackingNumber: res.TrackingNumber,
		LabelID:        res.LabelID,
		LetterID:       res.LetterID,
		MailStatus:     res.MailStatus,
		WeightOz:       res.WeightOz,
		PageCount:      res.PageCount,
		ArchiveKey:     res.ArchiveKey,
		Duplicate:      res.Duplicate,
		Audit:          res.Audit,
	})
}

// decodeReturnRequest reads one JSON object. An empty body decodes to an
// empty request so the field gates can report what is missing.
func decodeReturnRequest(r io.Reader) (*dto.CreateReturnRequest, error) {
	var body dto.CreateReturnRequest
	if r == nil {
		return &body, nil
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return &body, nil
		}
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return &body, nil
}
