// Package watch re-validates a statute file whenever it changes on
// disk.
//
// The service owns a CachingParser and optional validator, rules
// engine, and metrics. All parsing happens on the Run goroutine, which
// satisfies the single-owner contract of the caching layer: the parser
// and its cache are never touched concurrently.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/lawkit/internal/metrics"
	"github.com/dshills/lawkit/internal/parser"
	"github.com/dshills/lawkit/internal/rules"
	"github.com/dshills/lawkit/internal/validate"
)

// ErrServiceClosed is returned when Run is called on a closed service.
var ErrServiceClosed = errors.New("watch service is closed")

// Result summarizes one check cycle.
type Result struct {
	RunID      string        // Unique id for this check cycle
	Statutes   int           // Statutes in the parsed document
	Warnings   int           // Parser warnings
	Issues     int           // Validation issues
	Findings   int           // Lint rule findings
	Duration   time.Duration // Total cycle duration
	ParseError error         // Non-nil if the document failed to parse
}

// OK reports whether the cycle parsed and validated cleanly.
func (r Result) OK() bool {
	return r.ParseError == nil && r.Issues == 0
}

// Service watches one statute file and re-checks it on change.
type Service struct {
	path      string
	parser    *parser.CachingParser
	validator *validate.Validator
	rules     *rules.Engine
	metrics   *metrics.Metrics
	log       zerolog.Logger
	debounce  time.Duration

	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures a Service.
type Option func(*Service)

// WithValidator enables semantic validation on each cycle.
func WithValidator(v *validate.Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithRules enables Lua lint rules on each cycle.
// The engine is driven only from the Run goroutine.
func WithRules(e *rules.Engine) Option {
	return func(s *Service) { s.rules = e }
}

// WithMetrics publishes cycle and cache metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithDebounce sets the delay used to coalesce rapid file events.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a watch service for the given statute file.
func New(path string, p *parser.CachingParser, opts ...Option) (*Service, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, err
	}

	s := &Service{
		path:     absPath,
		parser:   p,
		log:      zerolog.Nop(),
		debounce: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors that write via
	// rename-and-replace would otherwise drop the watch.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}
	s.watcher = fsw

	return s, nil
}

// Close releases the underlying file watcher.
func (s *Service) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.watcher.Close()
}

// Run checks the file once, then re-checks on every change until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.closed {
		return ErrServiceClosed
	}

	s.report(s.Check())

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(ev) {
				continue
			}
			// Coalesce bursts of events into one check.
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(s.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			s.report(s.Check())

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// relevant reports whether the event concerns the watched file.
func (s *Service) relevant(ev fsnotify.Event) bool {
	if ev.Name != s.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

// Check runs one read-parse-validate-lint cycle.
func (s *Service) Check() Result {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}

	data, err := os.ReadFile(s.path)
	if err != nil {
		res.ParseError = err
		res.Duration = time.Since(start)
		return res
	}

	doc, err := s.parser.ParseDocument(string(data))
	if s.metrics != nil {
		s.metrics.ObserveParse(time.Since(start), err)
		s.metrics.ObserveCache(s.parser.CacheStats())
	}
	if err != nil {
		res.ParseError = err
		res.Duration = time.Since(start)
		return res
	}

	res.Statutes = doc.Len()
	res.Warnings = len(s.parser.Warnings())

	if s.validator != nil {
		var verrs *validate.ValidationErrors
		if err := s.validator.ValidateDocument(doc); errors.As(err, &verrs) {
			res.Issues = len(verrs.Issues)
		}
	}

	if s.rules != nil {
		findings, err := s.rules.Check(doc)
		if err != nil {
			s.log.Error().Err(err).Msg("lint rules failed")
		}
		res.Findings = len(findings)
		for _, f := range findings {
			s.log.Warn().
				Str("rule", f.Rule).
				Str("statute", f.StatuteID).
				Msg(f.Message)
		}
	}

	if s.metrics != nil {
		s.metrics.StatutesTotal.Set(float64(res.Statutes))
		s.metrics.ValidationIssues.Set(float64(res.Issues))
		s.metrics.RuleFindings.Set(float64(res.Findings))
	}

	res.Duration = time.Since(start)
	return res
}

// report logs the outcome of one cycle.
func (s *Service) report(res Result) {
	ev := s.log.Info()
	if !res.OK() {
		ev = s.log.Error().AnErr("parse_error", res.ParseError)
	}
	ev.Str("run_id", res.RunID).
		Str("file", s.path).
		Int("statutes", res.Statutes).
		Int("warnings", res.Warnings).
		Int("issues", res.Issues).
		Int("findings", res.Findings).
		Dur("duration", res.Duration).
		Msg("check complete")
}
