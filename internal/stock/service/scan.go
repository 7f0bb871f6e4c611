package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/actor"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/logger"
)

// Scan error codes
const (
	ScanUnauthorized  = "unauthorized"
	ScanMissingCode   = "missing_code"
	ScanNotFound      = "not_found"
	ScanConsumeFailed = "consume_failed"
)

// ScanRequest is one scan from a handheld scanner
type ScanRequest struct {
	Code          string
	Token         string
	ProductTmplID int64
}

// ScanResult is the flat answer returned to the scanner
type ScanResult struct {
	OK      bool
	Error   string
	Details string
	QuantID *int64
	NewQty  float64
	Scanned string
}

// MarshalJSON renders the success and failure shapes. A successful scan
// always carries quant_id, null when the quant was removed.
func (r ScanResult) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(struct {
			OK      bool    `json:"ok"`
			QuantID *int64  `json:"quant_id"`
			NewQty  float64 `json:"new_qty"`
			Scanned string  `json:"scanned"`
		}{true, r.QuantID, r.NewQty, r.Scanned})
	}

	return json.Marshal(struct {
		OK      bool   `json:"ok"`
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
		Scanned string `json:"scanned,omitempty"`
	}{false, r.Error, r.Details, r.Scanned})
}

// DebugTokenResult echoes the token comparison
type DebugTokenResult struct {
	GivenToken  string `json:"given_token"`
	SystemToken string `json:"system_token"`
	Equal       bool   `json:"equal"`
}

// Consumer takes quantity out of a quant
type Consumer interface {
	Consume(ctx context.Context, q *domain.Quant, code string, qty *float64) (domain.Consumption, error)
}

// ScanService resolves scanned codes to quants and consumes them
type ScanService struct {
	quants           QuantStore
	params           ParameterStore
	consumer         Consumer
	events           EventPublisher
	tokenKey         string
	defaultCompanyID int64
	cache            *expirable.LRU[string, string]
	logger           *logger.Logger
}

// ScanConfig configures the scan service
type ScanConfig struct {
	TokenParameter   string
	TokenCacheTTL    time.Duration
	DefaultCompanyID int64
}

// NewScanService creates a new scan service. A non-positive TokenCacheTTL
// disables caching of the token parameter.
func NewScanService(
	quants QuantStore,
	params ParameterStore,
	consumer Consumer,
	events EventPublisher,
	cfg ScanConfig,
	log *logger.Logger,
) *ScanService {
	s := &ScanService{
		quants:           quants,
		params:           params,
		consumer:         consumer,
		events:           events,
		tokenKey:         cfg.TokenParameter,
		defaultCompanyID: cfg.DefaultCompanyID,
		logger:           log.WithComponent("scan"),
	}
	if cfg.TokenCacheTTL > 0 {
		s.cache = expirable.NewLRU[string, string](8, nil, cfg.TokenCacheTTL)
	}
	return s
}

// Scan authenticates the request, finds the quant for the scanned code and
// consumes from it. Failures are reported in the result, never as errors.
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) ScanResult {
	systemToken, err := s.systemToken(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read scan token")
		return ScanResult{Error: ScanUnauthorized}
	}

	given := strings.TrimSpace(req.Token)
	if !tokensMatch(given, systemToken) {
		s.logger.Warn().
			Str("token", maskToken(given)).
			Str("system_token", maskToken(systemToken)).
			Msg("scan unauthorized")
		return ScanResult{Error: ScanUnauthorized}
	}

	base, qty := domain.ParseScanCode(req.Code)
	if base == "" {
		return ScanResult{Error: ScanMissingCode}
	}

	ctx = actor.WithActor(ctx, actor.Scanner(s.defaultCompanyID))

	q, err := s.find(ctx, base, req.ProductTmplID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Error().Err(err).Str("code", base).Msg("quant lookup failed")
		}
		return ScanResult{Error: ScanNotFound, Scanned: req.Code}
	}

	c, err := s.consumer.Consume(ctx, q, domain.NormalizeScanCode(base, qty), qty)
	if err != nil {
		return ScanResult{Error: ScanConsumeFailed, Details: errorDetails(err), Scanned: req.Code}
	}

	result := ScanResult{OK: true, NewQty: c.New, Scanned: req.Code}
	if s.removeIfDepleted(ctx, q) {
		result.NewQty = 0
	} else {
		id := q.ID
		result.QuantID = &id
	}
	return result
}

// DebugToken compares a token with the configured one and echoes both
func (s *ScanService) DebugToken(ctx context.Context, token string) (*DebugTokenResult, error) {
	systemToken, err := s.params.Get(ctx, s.tokenKey)
	if err != nil {
		return nil, err
	}
	systemToken = strings.TrimSpace(systemToken)
	given := strings.TrimSpace(token)

	return &DebugTokenResult{
		GivenToken:  given,
		SystemToken: systemToken,
		Equal:       given == systemToken,
	}, nil
}

// find looks the code up as a barcode first, then as a lot name
func (s *ScanService) find(ctx context.Context, code string, productTmplID int64) (*domain.Quant, error) {
	q, err := s.quants.FindByBarcode(ctx, code, productTmplID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	return s.quants.FindByLotName(ctx, code, productTmplID)
}

// removeIfDepleted deletes q when its stored quantity is no longer
// positive and reports whether it did. Failures keep the quant.
func (s *ScanService) removeIfDepleted(ctx context.Context, q *domain.Quant) bool {
	qty, err := s.quants.GetQuantity(ctx, q.ID)
	if err != nil {
		s.logger.Error().Err(err).Int64("quant_id", q.ID).Msg("failed to reload quantity after consumption")
		return false
	}
	if qty > 0 {
		return false
	}

	if err := s.quants.Delete(ctx, q.ID); err != nil {
		s.logger.Error().Err(err).Int64("quant_id", q.ID).Msg("failed to remove depleted quant")
		return false
	}

	s.logger.Info().Int64("quant_id", q.ID).Str("barcode", q.Barcode()).Msg("depleted quant removed")
	s.events.PublishRemoved(ctx, q)
	return true
}

func (s *ScanService) systemToken(ctx context.Context) (string, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(s.tokenKey); ok {
			return v, nil
		}
	}

	v, err := s.params.Get(ctx, s.tokenKey)
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)

	if s.cache != nil {
		s.cache.Add(s.tokenKey, v)
	}
	return v, nil
}

func tokensMatch(given, system string) bool {
	if given == "" || system == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(system)) == 1
}

// maskToken keeps the first two characters so operators can tell tokens apart
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return token[:2] + strings.Repeat("*", len(token)-2)
}

func errorDetails(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ParseProductFilter reads the optional product template filter of a scan.
// Strings and JSON numbers are accepted; anything unparsable means no filter.
func ParseProductFilter(raw interface{}) int64 {
	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || id < 0 {
			return 0
		}
		return id
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0
		}
		return int64(v)
	case json.Number:
		return ParseProductFilter(v.String())
	default:
		return 0
	}
}
