// Package returns runs the return-mail pipeline: it gates each request on
// configuration, caller credentials and required fields, then issues a carrier
// label, composes the printable packet, hands it to the letter provider and
// records exactly one audit record for every attempt that passed the gates.
package returns

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/returnmail/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxPanicSummary = 200

// Dependencies are the pipeline collaborators.
// Audit, Archive and Metrics are optional.
type Dependencies struct {
	Authenticator returns.Authenticator
	Tokens        returns.TokenSource
	Labels        returns.LabelIssuer
	Composer      returns.DocumentComposer
	Mailer        returns.MailSubmitter
	Audit         returns.AuditSink
	Archive       returns.DocumentArchive
	Metrics       *telemetry.PipelineMetrics
}

// Options are the immutable per-process pipeline settings
type Options struct {
	// Missing lists unset secrets. When non-empty every request fails with a
	// *returns.ConfigError and no collaborator is touched.
	Missing []string
	// Instructions are the pages placed before the label, nil for a label-only packet
	Instructions []byte
	// ReturnTo overrides the label recipient; nil keeps the label client's default
	ReturnTo *returns.Address
	// Sender overrides the letter sender; nil keeps the mail client's default
	Sender *returns.Address
	Mail   returns.MailOptions
	// Source tags every audit record
	Source string
	// StageTimeout bounds the label, compose and mail stages; zero disables it
	StageTimeout time.Duration
}

// Service is the return pipeline orchestrator
type Service struct {
	deps      Dependencies
	opts      Options
	validator *RequestValidator
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates the orchestrator. Collaborators may be nil only when
// opts.Missing marks the service as misconfigured.
func NewService(deps Dependencies, opts Options, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.Missing) == 0 {
		required := []struct {
			name string
			set  bool
		}{
			{"authenticator", deps.Authenticator != nil},
			{"token source", deps.Tokens != nil},
			{"label issuer", deps.Labels != nil},
			{"document composer", deps.Composer != nil},
			{"mail submitter", deps.Mailer != nil},
		}
		for _, r := range required {
			if !r.set {
				return nil, fmt.Errorf("returns: %s is required", r.name)
			}
		}
	}
	opts.Missing = slices.Clone(opts.Missing)
	opts.Instructions = slices.Clone(opts.Instructions)

	return &Service{
		deps:      deps,
		opts:      opts,
		validator: NewRequestValidator(),
		logger:    log.Named("returns"),
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Misconfigured lists the secrets that keep the service from accepting requests
func (s *Service) Misconfigured() []string {
	return slices.Clone(s.opts.Missing)
}

// attempt is the mutable state of one request
type attempt struct {
	id     string
	stage  returns.Stage
	record returns.AuditRecord
	label  *returns.LabelResult
}

func (a *attempt) trackingNumber() string {
	if a.label == nil {
		return ""
	}
	return a.label.TrackingNumber
}

// Process runs one request through the pipeline. Every error is a
// *returns.PipelineError naming the stage that failed.
func (s *Service) Process(ctx context.Context, in ProcessInput) (result *Result, err error) {
	requestID := s.newID()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx, span := telemetry.StartSpan(ctx, "returns.process",
		telemetry.WithSpanKind(trace.SpanKindInternal),
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, requestID),
	)
	defer span.End()

	a := &attempt{
		id:     requestID,
		stage:  returns.StageValidating,
		record: returns.NewAuditRecord(requestID, s.opts.Source, in.Request, s.now()),
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, s.recoverPanic(ctx, a, r)
			telemetry.RecordError(span, err)
		}
	}()

	req, gateErr := s.gate(ctx, a, in)
	if gateErr != nil {
		s.metrics().RecordRequest(ctx, telemetry.OutcomeRejected, string(gateErr.Stage))
		telemetry.RecordError(span, gateErr)
		logger.WithLogger(ctx, s.logger).Info("return request rejected",
			zap.String("stage", string(gateErr.Stage)),
			zap.Error(gateErr.Err),
		)
		return nil, gateErr
	}

	a.stage = returns.StageRequestingLabel
	a.record = returns.NewAuditRecord(requestID, s.opts.Source, req, s.now())

	result, err = s.run(ctx, a, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return result, nil
}

// gate applies, in order, the configuration check, the caller credential
// check and request validation. Nothing here reaches the network and
// rejections are not audited.
func (s *Service) gate(ctx context.Context, a *attempt, in ProcessInput) (returns.ReturnRequest, *returns.PipelineError) {
	reject := func(err error) *returns.PipelineError {
		return &returns.PipelineError{
			Stage:     a.stage,
			RequestID: a.id,
			Audit:     returns.SkippedOutcome(),
			Err:       err,
		}
	}

	if len(s.opts.Missing) > 0 {
		return returns.ReturnRequest{}, reject(&returns.ConfigError{Missing: slices.Clone(s.opts.Missing)})
	}

	// A credential carried in the body cannot be read from a broken body
	if in.BodyErr != nil && credentialInBody(s.deps.Authenticator) {
		return returns.ReturnRequest{}, reject(&returns.MalformedRequestError{Cause: in.BodyErr})
	}

	a.stage = returns.StageAuthenticating
	if err := s.deps.Authenticator.Authenticate(ctx, in.Credentials); err != nil {
		var unauth *returns.UnauthorizedError
		if !errors.As(err, &unauth) {
			err = &returns.UnauthorizedError{Reason: err.Error()}
		}
		return returns.ReturnRequest{}, reject(err)
	}

	a.stage = returns.StageValidating
	if in.BodyErr != nil {
		return returns.ReturnRequest{}, reject(&returns.MalformedRequestError{Cause: in.BodyErr})
	}
	req := in.Request.Normalized()
	if err := s.validator.Validate(req); err != nil {
		return returns.ReturnRequest{}, reject(err)
	}
	return req, nil
}

func credentialInBody(auth returns.Authenticator) bool {
	bc, ok := auth.(returns.BodyCredential)
	return ok && bc.CredentialInBody()
}

func (s *Service) run(ctx context.Context, a *attempt, req returns.ReturnRequest) (*Result, error) {
	label, err := s.requestLabel(ctx, a, req)
	if err != nil {
		return nil, s.fail(ctx, a, err)
	}
	a.label = label
	a.record.WithLabel(label)
	ctx = logger.WithTrackingNumber(ctx, label.TrackingNumber)
	telemetry.SetAttributes(trace.SpanFromContext(ctx),
		telemetry.SpanAttrTrackingNumber, label.TrackingNumber,
		telemetry.SpanAttrLabelID, label.LabelID,
		telemetry.SpanAttrWeightOz, label.WeightOz,
	)

	doc, err := s.compose(ctx, a, label)
	if err != nil {
		return nil, s.fail(ctx, a, err)
	}
	archiveKey := s.archive(ctx, a, doc)

	mailed, err := s.submit(ctx, a, req, doc)
	if err != nil {
		return nil, s.fail(ctx, a, err)
	}
	a.record.LetterID = mailed.LetterID
	telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.SpanAttrLetterID, mailed.LetterID)

	a.stage = returns.StageAuditing
	a.record.Status = returns.AuditStatusCreated
	a.record.LastEvent = fmt.Sprintf("Letter %s submitted (%s)", mailed.LetterID, mailed.Status)
	outcome := s.audit(ctx, a)

	a.stage = returns.StageDone
	s.metrics().RecordRequest(ctx, telemetry.OutcomeOK, string(returns.StageDone))
	logger.WithLogger(ctx, s.logger).Info("return packet mailed",
		zap.String("letter_id", mailed.LetterID),
		zap.String("mail_status", mailed.Status),
		zap.String("audit", string(outcome.Status)),
	)

	return &Result{
		RequestID:      a.id,
		TrackingNumber: label.TrackingNumber,
		LabelID:        label.LabelID,
		LetterID:       mailed.LetterID,
		MailStatus:     mailed.Status,
		WeightOz:       label.WeightOz,
		PageCount:      doc.PageCount,
		ArchiveKey:     archiveKey,
		Duplicate:      label.Duplicate,
		Audit:          outcome,
	}, nil
}

// step runs fn as one pipeline stage with its own span, log fields,
// duration metric and optional deadline
func (s *Service) step(ctx context.Context, a *attempt, stage returns.Stage, fn func(context.Context) error) error {
	a.stage = stage
	ctx = logger.WithStage(ctx, string(stage))
	ctx, span := telemetry.StartStageSpan(ctx, string(stage))
	defer span.End()

	if s.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StageTimeout)
		defer cancel()
	}

	log := logger.WithLogger(ctx, s.logger)
	log.Debug("stage started")
	start := time.Now()
	var err error
	telemetry.WithStageProfile(ctx, string(stage), func(ctx context.Context) {
		err = fn(ctx)
	})
	elapsed := time.Since(start)
	s.metrics().RecordStage(ctx, string(stage), elapsed)

	if err != nil {
		telemetry.RecordError(span, err)
		var pf returns.ProviderFailure
		if errors.As(err, &pf) && pf.HTTPStatus() > 0 {
			telemetry.SetAttributes(span, telemetry.SpanAttrHTTPStatus, pf.HTTPStatus())
		}
		return err
	}
	telemetry.SetOK(span)
	log.Debug("stage finished", zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Service) requestLabel(ctx context.Context, a *attempt, req returns.ReturnRequest) (*returns.LabelResult, error) {
	var label *returns.LabelResult
	err := s.step(ctx, a, returns.StageRequestingLabel, func(ctx context.Context) error {
		token, err := s.deps.Tokens.AccessToken(ctx)
		if err != nil {
			return err
		}
		label, err = s.deps.Labels.CreateLabel(ctx, token, req, s.opts.ReturnTo)
		if err != nil {
			var labelErr *returns.LabelError
			if errors.As(err, &labelErr) && labelErr.Reason == returns.LabelAuthFailed {
				s.invalidateToken(ctx)
			}
			return err
		}
		if label.Duplicate {
			logger.WithLogger(ctx, s.logger).Warn("carrier label requested again for identical content",
				zap.String("idempotency_key", label.IdempotencyKey),
			)
		}
		return nil
	})
	return label, err
}

// invalidateToken drops a cached carrier token the carrier refused, so the
// next request refreshes it
func (s *Service) invalidateToken(ctx context.Context) {
	if inv, ok := s.deps.Tokens.(returns.TokenInvalidator); ok {
		inv.Invalidate(ctx)
		logger.WithLogger(ctx, s.logger).Info("cached carrier token invalidated")
	}
}

func (s *Service) compose(ctx context.Context, a *attempt, label *returns.LabelResult) (*returns.ComposedDocument, error) {
	var doc *returns.ComposedDocument
	err := s.step(ctx, a, returns.StageComposingDocument, func(ctx context.Context) error {
		var err error
		doc, err = s.deps.Composer.Compose(ctx, label.LabelBytes, s.opts.Instructions)
		if err != nil {
			return err
		}
		telemetry.SetAttributes(trace.SpanFromContext(ctx), telemetry.SpanAttrPageCount, doc.PageCount)
		return nil
	})
	return doc, err
}

// archive keeps a copy of the packet. Failures are logged and never fail the request.
func (s *Service) archive(ctx context.Context, a *attempt, doc *returns.ComposedDocument) string {
	if s.deps.Archive == nil {
		return ""
	}
	key, err := s.deps.Archive.Archive(ctx, a.id, doc)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("packet archive failed", zap.Error(err))
		return ""
	}
	return key
}

func (s *Service) submit(ctx context.Context, a *attempt, req returns.ReturnRequest, doc *returns.ComposedDocument) (*returns.MailSubmissionResult, error) {
	var mailed *returns.MailSubmissionResult
	err := s.step(ctx, a, returns.StageSubmittingMail, func(ctx context.Context) error {
		var err error
		mailed, err = s.deps.Mailer.Submit(ctx, doc, s.opts.Sender, req.Address(), s.mailOptions(a))
		return err
	})
	return mailed, err
}

// mailOptions keys the letter on the request ID so a retried submission is
// dropped by the provider, and tags it with the label it carries
func (s *Service) mailOptions(a *attempt) returns.MailOptions {
	opts := s.opts.Mail
	opts.IdempotencyKey = a.id
	opts.Metadata = make(map[string]string, len(s.opts.Mail.Metadata)+3)
	maps.Copy(opts.Metadata, s.opts.Mail.Metadata)
	opts.Metadata["request_id"] = a.id
	if tn := a.trackingNumber(); tn != "" {
		opts.Metadata["tracking_number"] = tn
	}
	if a.label != nil && a.label.LabelID != "" {
		opts.Metadata["label_id"] = a.label.LabelID
	}
	return opts
}

// fail records the Exception audit for the current stage and wraps err
func (s *Service) fail(ctx context.Context, a *attempt, err error) error {
	stage := a.stage
	a.record.Status = returns.AuditStatusException
	a.record.LastEvent = returns.FailureEvent(stage, err)

	logger.WithLogger(ctx, s.logger).Warn("return pipeline failed",
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	outcome := s.audit(ctx, a)
	s.metrics().RecordRequest(ctx, telemetry.OutcomeFailed, string(stage))

	return &returns.PipelineError{
		Stage:          stage,
		RequestID:      a.id,
		TrackingNumber: a.trackingNumber(),
		Audit:          outcome,
		Err:            err,
	}
}

func (s *Service) recoverPanic(ctx context.Context, a *attempt, r any) error {
	summary := fmt.Sprint(r)
	if len(summary) > maxPanicSummary {
		summary = summary[:maxPanicSummary]
	}
	logger.WithLogger(ctx, s.logger).Error("panic in return pipeline",
		zap.String("stage", string(a.stage)),
		zap.String("panic", summary),
		zap.Stack("stacktrace"),
	)

	a.record.Status = returns.AuditStatusException
	a.record.LastEvent = "Unhandled error: " + summary
	outcome := s.audit(ctx, a)
	s.metrics().RecordRequest(ctx, telemetry.OutcomeFailed, string(a.stage))

	return &returns.PipelineError{
		Stage:          a.stage,
		RequestID:      a.id,
		TrackingNumber: a.trackingNumber(),
		Audit:          outcome,
		Err:            fmt.Errorf("%w: %s", returns.ErrUnhandled, summary),
	}
}

// audit writes the record once. It runs detached from the caller's
// cancellation so an aborted request still leaves a trace.
func (s *Service) audit(ctx context.Context, a *attempt) (outcome returns.DeliveryOutcome) {
	if s.deps.Audit == nil {
		return returns.SkippedOutcome()
	}
	ctx = context.WithoutCancel(ctx)
	ctx, span := telemetry.StartStageSpan(ctx, string(returns.StageAuditing))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			outcome = returns.DeliveryOutcome{Status: returns.DeliveryFailed, Error: fmt.Sprint(r)}
		}
		telemetry.SetAttributes(span, telemetry.SpanAttrAuditStatus, string(outcome.Status))
		s.metrics().RecordAudit(ctx, string(outcome.Status))
		if outcome.Status == returns.DeliveryFailed {
			logger.WithLogger(ctx, s.logger).Warn("audit record not delivered",
				zap.Int("http_status", outcome.HTTPStatus),
				zap.String("error", outcome.Error),
			)
		}
	}()

	a.record.LastCheckedAt = s.now()
	return s.deps.Audit.Record(ctx, a.record)
}

func (s *Service) metrics() *telemetry.PipelineMetrics {
	return s.deps.Metrics
}
