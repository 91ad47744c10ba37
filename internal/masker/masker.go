package masker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/safedialog/safedialog/internal/detector"
	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/entity"
)

// SpanCache memoizes detector output keyed by the analyzed text. A cache miss
// or cache failure only costs a repeated detection, so implementations may
// fail soft.
type SpanCache interface {
	GetSpans(ctx context.Context, text string) ([]entity.Span, bool, error)
	SetSpans(ctx context.Context, text string, spans []entity.Span) error
}

// Config controls the masking pipeline.
type Config struct {
	// DetectionTimeout bounds one detector call. Zero means no deadline
	// beyond the caller's context.
	DetectionTimeout time.Duration

	// RequestsPerSecond throttles detector calls across all fields and
	// requests. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	// Guidance is extra instruction text forwarded to the detector, for
	// example the user's question when masking conversation context.
	Guidance string
}

// Masker is the masking pipeline: rate limiting, span cache, detection with
// a deadline, dictionary snapshot and encoding. One Masker serves all
// requests concurrently.
type Masker struct {
	cfg      Config
	detector detector.Detector
	store    dictionary.Store
	cache    SpanCache
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// New creates a masker. cache may be nil.
func New(cfg Config, det detector.Detector, store dictionary.Store, cache SpanCache, logger *zap.Logger) *Masker {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Masker{
		cfg:      cfg,
		detector: det,
		store:    store,
		cache:    cache,
		limiter:  limiter,
		logger:   logger,
	}
}

// Mask runs the full pipeline over one text field and returns the masked
// text with its entity list. Identifier allocation is scoped to this call.
func (m *Masker) Mask(ctx context.Context, text string) (entity.MaskingResult, error) {
	start := time.Now()
	if text == "" {
		return entity.MaskingResult{EntitiesFound: []entity.SensitiveEntity{}}, nil
	}

	dict, err := m.store.Snapshot(ctx)
	if err != nil {
		return entity.MaskingResult{}, err
	}

	if spans, ok := m.cachedSpans(ctx, text); ok {
		result := Encode(text, spans, dict)
		result.FromCache = true
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return entity.MaskingResult{}, err
		}
	}

	detected, err := m.detect(ctx, text)
	if err != nil {
		return entity.MaskingResult{}, err
	}

	var result entity.MaskingResult
	if detected.PreMasked() {
		// The detector produced masked text itself; trust it verbatim.
		result = entity.MaskingResult{
			MaskedText:    detected.MaskedText,
			EntitiesFound: detected.Entities,
		}
		if result.EntitiesFound == nil {
			result.EntitiesFound = []entity.SensitiveEntity{}
		}
	} else {
		m.storeSpans(ctx, text, detected.Spans)
		result = Encode(text, detected.Spans, dict)
	}

	result.ProcessingTime = time.Since(start)
	m.logger.Debug("text masked",
		zap.Int("entities", len(result.EntitiesFound)),
		zap.Duration("duration", result.ProcessingTime))
	return result, nil
}

// PreMask tokenizes known dictionary names without calling the detector.
func (m *Masker) PreMask(ctx context.Context, text string) (entity.MaskingResult, error) {
	start := time.Now()
	if text == "" {
		return entity.MaskingResult{EntitiesFound: []entity.SensitiveEntity{}}, nil
	}
	dict, err := m.store.Snapshot(ctx)
	if err != nil {
		return entity.MaskingResult{}, err
	}
	result := PreMask(text, dict)
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// FieldResult is one field's outcome from MaskFields, in input order.
type FieldResult struct {
	Index  int
	Result entity.MaskingResult
	Err    error
}

// MaskFields masks several fields concurrently. Each field is its own
// identifier namespace: fresh ids restart from 1 per field, so results must
// not be merged into a single demasking mapping without dictionary-backed
// ids.
func (m *Masker) MaskFields(ctx context.Context, fields []string) []FieldResult {
	results := make([]FieldResult, len(fields))
	var wg sync.WaitGroup
	for i, text := range fields {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			r, err := m.Mask(ctx, text)
			results[i] = FieldResult{Index: i, Result: r, Err: err}
		}(i, text)
	}
	wg.Wait()
	return results
}

// detect calls the detector under the configured deadline and classifies
// failures into the package's typed errors.
func (m *Masker) detect(ctx context.Context, text string) (detector.Result, error) {
	if m.cfg.DetectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.DetectionTimeout)
		defer cancel()
	}

	result, err := m.detector.Detect(ctx, text, m.cfg.Guidance)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.logger.Warn("detection timed out",
				zap.Duration("timeout", m.cfg.DetectionTimeout))
			return detector.Result{}, &DetectionTimeoutError{Err: err}
		}
		m.logger.Error("detection failed", zap.Error(err))
		return detector.Result{}, &DetectionFailedError{Err: err}
	}
	return result, nil
}

func (m *Masker) cachedSpans(ctx context.Context, text string) ([]entity.Span, bool) {
	if m.cache == nil {
		return nil, false
	}
	spans, ok, err := m.cache.GetSpans(ctx, text)
	if err != nil {
		m.logger.Warn("span cache read failed", zap.Error(err))
		return nil, false
	}
	return spans, ok
}

func (m *Masker) storeSpans(ctx context.Context, text string, spans []entity.Span) {
	if m.cache == nil {
		return
	}
	if err := m.cache.SetSpans(ctx, text, spans); err != nil {
		m.logger.Warn("span cache write failed", zap.Error(err))
	}
}
