// Package app wires sources, the forecasting engine, the alert gate and the
// output adapters into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fillcast/api/bins"
	"github.com/kilianp07/fillcast/config"
	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/binstatus"
	"github.com/kilianp07/fillcast/core/events"
	"github.com/kilianp07/fillcast/core/forecast"
	coremetrics "github.com/kilianp07/fillcast/core/metrics"
	"github.com/kilianp07/fillcast/core/model"
	coremqtt "github.com/kilianp07/fillcast/core/mqtt"
	"github.com/kilianp07/fillcast/infra/logger"
	"github.com/kilianp07/fillcast/infra/metrics"
	"github.com/kilianp07/fillcast/infra/mqtt"
	"github.com/kilianp07/fillcast/infra/source"
	"github.com/kilianp07/fillcast/internal/eventbus"
)

// Deps are the collaborators of a Service. Source is required; nil Analyzer,
// Gate, Sink, Store and Logger select defaults and a nil Publisher disables
// MQTT.
type Deps struct {
	Source     source.Source
	SourceName string
	BinID      string
	Analyzer   forecast.Analyzer
	Gate       *alert.Gate
	Publisher  coremqtt.Publisher
	Sink       coremetrics.MetricsSink
	Store      binstatus.Store
	Logger     logger.Logger
	Interval   time.Duration
	PromAddr   string
	APIAddr    string
	Now        func() time.Time
}

// Service periodically loads history, analyzes it and publishes the results.
type Service struct {
	source     source.Source
	sourceName string
	binID      string
	analyzer   forecast.Analyzer
	gate       *alert.Gate
	pub        coremqtt.Publisher
	sink       coremetrics.MetricsSink
	store      binstatus.Store
	bus        *eventbus.Bus[events.Event]
	log        logger.Logger
	interval   time.Duration
	promAddr   string
	apiAddr    string
	now        func() time.Time

	mu       sync.Mutex
	lastSeen time.Time

	stopCollector context.CancelFunc
	collectorDone <-chan struct{}
	closers       []func()
	closeOnce     sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	src, err := source.New(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	loc, err := cfg.Analysis.Location()
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	deps := Deps{
		Source:     src,
		SourceName: cfg.Source.Type,
		BinID:      cfg.Source.BinID,
		Analyzer:   forecast.Engine{Location: loc},
		Gate:       alert.NewGate(cfg.Analysis.AlertThreshold, cfg.Analysis.Cooldown),
		Sink:       sink,
		Logger:     logg,
		Interval:   cfg.Analysis.Interval,
		PromAddr:   cfg.Metrics.PrometheusAddr,
		APIAddr:    cfg.API.Addr,
	}
	var client *mqtt.PahoClient
	if cfg.MQTT.Enabled() {
		client, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		deps.Publisher = client
	}

	svc := NewService(deps)
	if client != nil {
		svc.closers = append(svc.closers, client.Disconnect)
	}
	if is, ok := src.(*source.InfluxSource); ok {
		svc.closers = append(svc.closers, is.Close)
	}
	if is, ok := sink.(*metrics.InfluxSink); ok {
		svc.closers = append(svc.closers, is.Close)
	}
	return svc, nil
}

// NewService creates a Service from explicit collaborators and starts the
// metrics collector.
func NewService(d Deps) *Service {
	s := &Service{
		source:     d.Source,
		sourceName: d.SourceName,
		binID:      d.BinID,
		analyzer:   d.Analyzer,
		gate:       d.Gate,
		pub:        d.Publisher,
		sink:       d.Sink,
		store:      d.Store,
		log:        d.Logger,
		interval:   d.Interval,
		promAddr:   d.PromAddr,
		apiAddr:    d.APIAddr,
		now:        d.Now,
		bus:        eventbus.New[events.Event](64),
	}
	if s.analyzer == nil {
		s.analyzer = forecast.Engine{}
	}
	if s.gate == nil {
		s.gate = alert.NewGate(alert.DefaultThreshold, alert.DefaultCooldown)
	}
	if s.sink == nil {
		s.sink = coremetrics.NopSink{}
	}
	if s.store == nil {
		s.store = binstatus.NewMemoryStore()
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sourceName == "" {
		s.sourceName = "history"
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCollector = cancel
	s.collectorDone = metrics.StartEventCollector(ctx, s.bus, s.sink, s.log)
	return s
}

// Bus exposes the event bus so callers can observe reports and alerts.
func (s *Service) Bus() *eventbus.Bus[events.Event] { return s.bus }

// Store returns the latest status of every analyzed bin.
func (s *Service) Store() binstatus.Store { return s.store }

// RunOnce loads the history, analyzes it, evaluates the alert gate and
// publishes the results. Publishing failures are logged, not returned.
func (s *Service) RunOnce(ctx context.Context) (forecast.Report, error) {
	start := s.now()
	samples, err := s.source.Load(ctx)
	s.recordLoad(len(samples), s.now().Sub(start), err)
	if err != nil {
		return forecast.Report{}, fmt.Errorf("load history: %w", err)
	}

	report := s.analyzer.Analyze(samples)
	if report.BinID == "" {
		report.BinID = s.binID
	}
	report.ID = uuid.NewString()
	dur := s.now().Sub(start)

	fields := map[string]any{
		"bin_id":     report.BinID,
		"samples":    report.Samples,
		"trend":      string(report.Forecast.Trend),
		"confidence": report.Forecast.Confidence,
		"full_in":    report.Forecast.HoursUntilFull.String(),
	}
	if report.Insufficient {
		s.log.Infow("not enough samples for a forecast", fields)
	} else {
		s.log.Infow("analysis done", fields)
	}
	s.store.SetReport(report, s.now())
	s.bus.Publish(events.ReportEvent{Report: report, Duration: dur, Time: s.now()})

	if s.pub != nil {
		if _, err := s.pub.PublishReport(ctx, report); err != nil {
			s.log.Errorf("publish report: %v", err)
		}
	}

	window, _ := forecast.Sanitize(samples)
	for _, a := range s.observe(window, report.BinID) {
		id := uuid.NewString()
		s.log.Warnf("bin %s reached %.1f%% (threshold %.0f%%)", a.BinID, a.FillPercent, a.Threshold)
		s.store.RecordAlert(a)
		s.bus.Publish(events.AlertEvent{ID: id, Alert: a})
		if s.pub != nil {
			if err := s.pub.PublishAlert(ctx, id, a); err != nil {
				s.log.Errorf("publish alert: %v", err)
			}
		}
	}
	return report, nil
}

// observe feeds the gate with the samples newer than the last run. On the
// first run only the two latest samples are fed so that old crossings are not
// reported again.
func (s *Service) observe(sorted []model.Sample, binID string) []alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := sorted
	if s.lastSeen.IsZero() {
		if len(fresh) > 2 {
			fresh = fresh[len(fresh)-2:]
		}
	} else {
		i := 0
		for i < len(fresh) && !fresh[i].Timestamp.After(s.lastSeen) {
			i++
		}
		fresh = fresh[i:]
	}
	var out []alert.Alert
	for _, smp := range fresh {
		if a, ok := s.gate.Observe(binID, smp.Fill(), smp.Timestamp); ok {
			out = append(out, a)
		}
		s.lastSeen = smp.Timestamp
	}
	return out
}

func (s *Service) recordLoad(n int, d time.Duration, err error) {
	if err != nil {
		s.log.Errorf("load %s: %v", s.sourceName, err)
	} else {
		s.log.Debugf("loaded %d samples from %s in %s", n, s.sourceName, d)
	}
	r, ok := s.sink.(coremetrics.SourceLoadRecorder)
	if !ok {
		return
	}
	if rerr := r.RecordSourceLoad(coremetrics.SourceLoad{Source: s.sourceName, Samples: n, Duration: d, Err: err}); rerr != nil {
		s.log.Errorf("record source load: %v", rerr)
	}
}

// Run analyzes immediately and then on every interval until ctx is
// cancelled. Failed runs are logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiAddr != "" {
		go func() {
			if err := bins.Serve(ctx, s.apiAddr, s.store); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			s.log.Errorf("analysis run: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close stops the collector and releases the adapters.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.bus.Close()
		<-s.collectorDone
		s.stopCollector()
		for _, c := range s.closers {
			c()
		}
	})
	return nil
}
