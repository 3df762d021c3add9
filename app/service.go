package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kilianp07/spicev2g/config"
	coremetrics "github.com/kilianp07/spicev2g/core/metrics"
	coremonitoring "github.com/kilianp07/spicev2g/core/monitoring"
	"github.com/kilianp07/spicev2g/core/report"
	"github.com/kilianp07/spicev2g/core/scenario"
	"github.com/kilianp07/spicev2g/core/strategy"
	"github.com/kilianp07/spicev2g/infra/logger"
	"github.com/kilianp07/spicev2g/infra/monitoring"
	"github.com/kilianp07/spicev2g/infra/mqtt"

	_ "github.com/kilianp07/spicev2g/infra/metrics" // registers built-in metrics sinks
)

// Service orchestrates a single simulation run: load the scenario document,
// build the world, drive the stepper, and persist the resulting rows.
type Service struct {
	cfg *config.Config
	log logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremonitoring.Init(mon)
	return &Service{cfg: cfg, log: logger.New("service")}, nil
}

// Run loads the scenario document, builds the world, runs the stepper for
// the resolved number of intervals, and writes every row to the configured
// report and metrics sinks.
func (s *Service) Run(ctx context.Context) error {
	defer coremonitoring.Flush(2 * time.Second)

	doc, err := s.loadScenario()
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	opts, err := buildOptions(s.cfg.Scenario)
	if err != nil {
		return fmt.Errorf("build options: %w", err)
	}

	strat, err := strategy.New(s.cfg.Strategy, s.log)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	sc, err := scenario.New(doc, opts, strat, s.log)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	if s.cfg.MQTT.Enabled() {
		ing, err := mqtt.NewIngestor(mqtt.Config{
			Broker:   s.cfg.MQTT.Broker,
			ClientID: s.cfg.MQTT.ClientID,
			Topic:    s.cfg.MQTT.Topic,
			Username: s.cfg.MQTT.Username,
			Password: s.cfg.MQTT.Password,
			QoS:      s.cfg.MQTT.QoS,
		}, sc.World.Events)
		if err != nil {
			return fmt.Errorf("mqtt ingestor: %w", err)
		}
		defer ing.Close()
		s.log.Infof("mqtt: live grid-operator signal ingestion active on %s", s.cfg.MQTT.Topic)
	}

	n := doc.Scenario.Steps()
	if n <= 0 {
		return fmt.Errorf("scenario: cannot determine step count (set n_intervals or stop_time)")
	}

	sink, err := coremetrics.NewMetricsSink(s.cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	defer sink.Close()

	writer, err := s.reportWriter()
	if err != nil {
		return fmt.Errorf("report writer: %w", err)
	}
	defer writer.Close()

	s.log.Infof("starting run %s: %d intervals", sc.RunID, n)
	rows, runErr := sc.Run(n)
	for _, row := range rows {
		if wErr := writer.Write(ctx, row); wErr != nil {
			s.log.Errorf("write row %d: %v", row.Timestep, wErr)
		}
		if mErr := sink.Write(ctx, row); mErr != nil {
			s.log.Errorf("metrics row %d: %v", row.Timestep, mErr)
		}
	}
	if runErr != nil {
		coremonitoring.CaptureException(runErr, map[string]string{"run_id": sc.RunID})
		return fmt.Errorf("run %s: %w", sc.RunID, runErr)
	}
	s.log.Infof("run %s complete: %d rows", sc.RunID, len(rows))
	return nil
}

func (s *Service) loadScenario() (*scenario.Document, error) {
	f, err := os.Open(s.cfg.Scenario.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	format := s.cfg.Scenario.Format
	if format == "" {
		format = formatFromExt(s.cfg.Scenario.Path)
	}
	return scenario.LoadDocument(f, format)
}

func (s *Service) reportWriter() (report.Writer, error) {
	switch s.cfg.Report.Backend {
	case "none":
		return coremetrics.NopSink{}, nil
	case "sqlite":
		return report.NewSQLiteStore(s.cfg.Report.Path)
	case "jsonl", "":
		return report.NewJSONLStore(s.cfg.Report.Path)
	default:
		return nil, fmt.Errorf("unknown report backend %q", s.cfg.Report.Backend)
	}
}

func buildOptions(sc config.ScenarioRunConfig) (scenario.BuildOptions, error) {
	var opts scenario.BuildOptions
	switch sc.WeekdayConvention {
	case "":
		opts.WeekdayConvention = scenario.WeekdayConventionUnset
	case "iso":
		opts.WeekdayConvention = scenario.WeekdayISO
	case "zero_based_monday":
		opts.WeekdayConvention = scenario.WeekdayZeroBasedMonday
	default:
		return opts, fmt.Errorf("unknown weekday_convention %q", sc.WeekdayConvention)
	}
	switch sc.NegativeSoCPolicy {
	case "", "abort":
		opts.NegSoCPolicy = scenario.NegativeSoCAbort
	case "continue":
		opts.NegSoCPolicy = scenario.NegativeSoCContinue
	case "reset":
		opts.NegSoCPolicy = scenario.NegativeSoCReset
	default:
		return opts, fmt.Errorf("unknown negative_soc_policy %q", sc.NegativeSoCPolicy)
	}
	return opts, nil
}

func formatFromExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			ext := path[i+1:]
			if ext == "yml" {
				return "yaml"
			}
			return ext
		}
	}
	return "yaml"
}
