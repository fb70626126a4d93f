package signals

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/daysense/daysense-api/internal/models"
)

// Collector runs a Sampler on a fixed interval and hands each snapshot to a
// sink. The interval is always caller-supplied; the original hardcoded two
// different values at two call sites, so it is configuration here.
type Collector struct {
	sampler  Sampler
	interval time.Duration
	sink     func(models.BehavioralSignals)
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewCollector wires a sampler to a sink at the given interval.
func NewCollector(sampler Sampler, interval time.Duration, sink func(models.BehavioralSignals), logger *zap.Logger) (*Collector, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sampling interval must be positive, got %s", interval)
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	return &Collector{
		sampler:  sampler,
		interval: interval,
		sink:     sink,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
	}, nil
}

// Start samples once immediately, then on every interval tick until Stop.
func (c *Collector) Start() error {
	c.tick()

	spec := fmt.Sprintf("@every %ds", int(c.interval.Seconds()))
	if _, err := c.cron.AddFunc(spec, c.tick); err != nil {
		return fmt.Errorf("failed to schedule sampling: %w", err)
	}
	c.cron.Start()
	return nil
}

// Stop halts sampling and waits for an in-flight tick to finish.
func (c *Collector) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Collector) tick() {
	snapshot := c.sampler.Sample(time.Now())
	if c.logger != nil {
		c.logger.Debug("behavioral_signals_sampled",
			zap.String("time_of_day", string(snapshot.TimeOfDay)),
			zap.Int("task_switching_freq", snapshot.TaskSwitchingFreq),
			zap.Int("idle_time_minutes", snapshot.IdleTimeMinutes),
			zap.Bool("late_night_usage", snapshot.LateNightUsage),
		)
	}
	c.sink(snapshot)
}
