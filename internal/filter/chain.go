package filter

import (
	"errors"

	"firestige.xyz/faultline/internal/metrics"
)

// Chain is the ordered filter stack of one proxy direction. Each filter's
// send callback is wired to the next filter's Process; the last filter
// sends to the chain's terminal, normally the transport write.
type Chain struct {
	name    string
	head    SendFunc
	filters []Filter
}

// Process feeds one stretch of input into the first filter.
func (c *Chain) Process(packet []byte) error {
	metrics.PacketsProcessedTotal.WithLabelValues(c.name).Inc()
	return c.head(packet)
}

// Name returns the chain's direction label.
func (c *Chain) Name() string { return c.name }

// Filters returns the filters in processing order.
func (c *Chain) Filters() []Filter { return c.filters }

// Close closes every filter in processing order so that upstream filters
// flush held packets through the still-open downstream ones.
func (c *Chain) Close() error {
	var errs []error
	for _, f := range c.filters {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
