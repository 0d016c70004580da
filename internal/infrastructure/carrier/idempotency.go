package carrier

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMode selects how label idempotency keys are derived
type IdempotencyMode string

const (
	// IdempotencyRandom issues a fresh key per call; identical requests are independent labels
	IdempotencyRandom IdempotencyMode = "random"
	// IdempotencyContent derives the key from sender, recipient and weight
	IdempotencyContent IdempotencyMode = "content"
)

// IdempotencyKeyer produces the key attached to a label request.
// duplicate reports that a label was already issued under the same key
// within the ledger TTL.
type IdempotencyKeyer interface {
	Key(ctx context.Context, from, to returns.Address, weightOz *int) (key string, duplicate bool)
	// Issued records that the carrier issued a label under key
	Issued(ctx context.Context, key string)
}

// RandomKeyer returns a new UUIDv4 per call
type RandomKeyer struct{}

// Key implements IdempotencyKeyer
func (RandomKeyer) Key(context.Context, returns.Address, returns.Address, *int) (string, bool) {
	return uuid.NewString(), false
}

// Issued implements IdempotencyKeyer
func (RandomKeyer) Issued(context.Context, string) {}

// labelNamespace scopes content-derived keys
var labelNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:returnmail:carrier-label"))

// ContentKeyer derives a UUIDv5 from the canonical label content and records it in a ledger
type ContentKeyer struct {
	ledger shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewContentKeyer creates a content keyer. A nil ledger disables duplicate detection.
func NewContentKeyer(ledger shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *ContentKeyer {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentKeyer{ledger: ledger, ttl: ttl, logger: logger.Named("carrier.idempotency")}
}

// Key implements IdempotencyKeyer
func (k *ContentKeyer) Key(ctx context.Context, from, to returns.Address, weightOz *int) (string, bool) {
	key := uuid.NewSHA1(labelNamespace, []byte(canonicalLabelContent(from, to, weightOz))).String()
	if k.ledger == nil {
		return key, false
	}

	seen, err := k.ledger.IsProcessed(ctx, key)
	if err != nil {
		k.logger.Warn("idempotency ledger unavailable", zap.Error(err))
		return key, false
	}
	if seen {
		k.logger.Warn("repeat label request within idempotency window", zap.String("idempotency_key", key))
	}
	return key, seen
}

// Issued implements IdempotencyKeyer. Keys are only recorded once the
// carrier issued a label, so a retry after a failed call is not a repeat.
func (k *ContentKeyer) Issued(ctx context.Context, key string) {
	if k.ledger == nil {
		return
	}
	if _, err := k.ledger.MarkProcessed(ctx, key, k.ttl); err != nil {
		k.logger.Warn("idempotency ledger unavailable", zap.Error(err))
	}
}

// NewIdempotencyKeyer returns the keyer for mode
func NewIdempotencyKeyer(mode IdempotencyMode, ledger shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) IdempotencyKeyer {
	if mode == IdempotencyContent {
		return NewContentKeyer(ledger, ttl, logger)
	}
	return RandomKeyer{}
}

func canonicalLabelContent(from, to returns.Address, weightOz *int) string {
	weight := "none"
	if weightOz != nil {
		weight = strconv.Itoa(*weightOz)
	}
	parts := append(addressParts(from.Normalized()), addressParts(to.Normalized())...)
	parts = append(parts, weight)
	return strings.ToLower(strings.Join(parts, "|"))
}

func addressParts(a returns.Address) []string {
	return []string{a.Name, a.Company, a.Line1, a.Line2, a.City, a.State, a.Postal, a.Country}
}
