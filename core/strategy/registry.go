package strategy

import (
	"github.com/kilianp07/spicev2g/core/factory"
	"github.com/kilianp07/spicev2g/core/logger"
	"github.com/kilianp07/spicev2g/core/scenario"
)

// registry is the generic factory.Registry[T] the ancestor uses for metrics
// sinks, reused verbatim here for strategy construction from
// factory.ModuleConfig (§9).
var registry = factory.NewRegistry[scenario.Strategy]()

// Register adds a named strategy constructor. Call from an init() in each
// strategy's file so selecting a strategy by name never requires editing
// this package.
func Register(name string, build func(map[string]any, logger.Logger) (scenario.Strategy, error)) {
	_ = registry.Register(name, func(conf map[string]any) (scenario.Strategy, error) {
		// logger is bound by New via a closure captured at call time; see
		// below — factory.Factory[T] does not carry a logger parameter, so
		// New wraps conf with the logger before delegating.
		log, _ := conf["__logger__"].(logger.Logger)
		delete(conf, "__logger__")
		return build(conf, log)
	})
}

// New constructs the named strategy from cfg, injecting log.
func New(cfg factory.ModuleConfig, log logger.Logger) (scenario.Strategy, error) {
	conf := make(map[string]any, len(cfg.Conf)+1)
	for k, v := range cfg.Conf {
		conf[k] = v
	}
	conf["__logger__"] = log
	return registry.Create(factory.ModuleConfig{Type: cfg.Type, Conf: conf})
}

func init() {
	Register("greedy", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		return NewGreedy(log), nil
	})
	Register("balanced", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		return NewBalanced(log), nil
	})
	Register("balanced_market", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		var opts BalancedMarketOptions
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		return NewBalancedMarket(log, opts), nil
	})
	Register("schedule", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		var opts ScheduleOptions
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		return NewSchedule(log, opts), nil
	})
	Register("peak_load_window", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		return NewPeakLoadWindow(log), nil
	})
	Register("flex_window", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		var opts FlexWindowOptions
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		return NewFlexWindow(log, opts), nil
	})
	Register("distributed", func(conf map[string]any, log logger.Logger) (scenario.Strategy, error) {
		return NewDistributed(log), nil
	})
}
