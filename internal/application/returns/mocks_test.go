package returns

import (
	"context"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/stretchr/testify/mock"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, creds returns.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}

// mockBodyAuthenticator reads its credential from the request body
type mockBodyAuthenticator struct {
	mockAuthenticator
}

func (m *mockBodyAuthenticator) CredentialInBody() bool { return true }

// mockTokenSource also invalidates, like the carrier token broker
type mockTokenSource struct {
	mock.Mock
}

func (m *mockTokenSource) AccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockTokenSource) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type mockLabelIssuer struct {
	mock.Mock
}

func (m *mockLabelIssuer) CreateLabel(ctx context.Context, accessToken string, req returns.ReturnRequest, returnTo *returns.Address) (*returns.LabelResult, error) {
	args := m.Called(ctx, accessToken, req, returnTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.LabelResult), args.Error(1)
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(ctx context.Context, labelBytes, instructions []byte) (*returns.ComposedDocument, error) {
	args := m.Called(ctx, labelBytes, instructions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ComposedDocument), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Submit(ctx context.Context, doc *returns.ComposedDocument, from *returns.Address, to returns.Address, opts returns.MailOptions) (*returns.MailSubmissionResult, error) {
	args := m.Called(ctx, doc, from, to, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.MailSubmissionResult), args.Error(1)
}

type mockAuditSink struct {
	mock.Mock
}

func (m *mockAuditSink) Record(ctx context.Context, rec returns.AuditRecord) returns.DeliveryOutcome {
	return m.Called(ctx, rec).Get(0).(returns.DeliveryOutcome)
}

// recorded returns every record passed to Record
func (m *mockAuditSink) recorded() []returns.AuditRecord {
	var out []returns.AuditRecord
	for _, call := range m.Calls {
		if call.Method == "Record" {
			out = append(out, call.Arguments.Get(1).(returns.AuditRecord))
		}
	}
	return out
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, requestID string, doc *returns.ComposedDocument) (string, error) {
	args := m.Called(ctx, requestID, doc)
	return args.String(0), args.Error(1)
}
