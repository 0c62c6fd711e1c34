package metrics

import (
	"sync"
	"time"

	"media-router/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() Stats

// GetStats calls f.
func (f StatsProviderFunc) GetStats() Stats {
	return f()
}

// Stats holds the current statistics
type Stats struct {
	PlaylistItems int
	Rules         int
	ActivePlayers int
}

// Collector periodically collects and updates gauge metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	PlaylistItems.Set(float64(stats.PlaylistItems))
	RuleTableSize.Set(float64(stats.Rules))
	ActivePlayers.Set(float64(stats.ActivePlayers))

	logging.Debug("Metrics collected: items=%d, rules=%d, players=%d",
		stats.PlaylistItems, stats.Rules, stats.ActivePlayers)
}
