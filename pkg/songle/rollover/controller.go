// Package rollover watches the wall clock for date changes. On a new day it
// reloads the catalog in the background; on every tick it sweeps expired
// clips.
package rollover

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
	"github.com/himanishpuri/Songle/pkg/utils"
)

// DefaultInterval is the tick period used when Config.Interval is unset.
const DefaultInterval = time.Minute

// Refresher reloads and republishes the catalog.
type Refresher interface {
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

// Sweeper drops cached clips older than its TTL.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Logger is the subset of pkg/logger the controller uses.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Config wires a Controller. Nil Catalog or Cache disable that half of the tick.
type Config struct {
	Clock    utils.Clock
	Location *time.Location
	Interval time.Duration
	Catalog  Refresher
	Cache    Sweeper
	Log      Logger
}

type refresh struct {
	done chan struct{}
	err  error
}

// Controller tracks the current day and drives catalog refreshes and cache sweeps.
type Controller struct {
	clock    utils.Clock
	loc      *time.Location
	interval time.Duration
	catalog  Refresher
	cache    Sweeper
	log      Logger

	current atomic.Int64

	mu      sync.Mutex
	pending *refresh
	stop    chan struct{}
	loop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Controller whose current day is today on cfg.Clock.
func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = utils.RealClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Log == nil {
		cfg.Log = logger.GetLogger().With("rollover")
	}
	c := &Controller{
		clock:    cfg.Clock,
		loc:      cfg.Location,
		interval: cfg.Interval,
		catalog:  cfg.Catalog,
		cache:    cfg.Cache,
		log:      cfg.Log,
	}
	c.current.Store(c.todayKey())
	return c
}

func (c *Controller) todayKey() int64 {
	return utils.MidnightKey(c.clock.Now().In(c.loc))
}

// CurrentDate is the midnight key of the last observed day.
func (c *Controller) CurrentDate() int64 {
	return c.current.Load()
}

// Tick runs one check. It never waits for the catalog refresh it starts.
// On a date change the refresh is armed before the new date is published,
// so a caller that observes the new CurrentDate also blocks in Await.
func (c *Controller) Tick(ctx context.Context) {
	now := c.clock.Now()
	today := utils.MidnightKey(now.In(c.loc))

	c.mu.Lock()
	prev := c.current.Load()
	changed := prev != today
	if changed {
		c.startLocked(ctx)
		c.current.Store(today)
	}
	c.mu.Unlock()

	if changed {
		metrics.Rollovers.Inc()
		c.log.Infof("Date changed %s -> %s", utils.FormatDay(prev, c.loc), utils.FormatDay(today, c.loc))
	}

	if c.cache != nil {
		if removed := c.cache.Sweep(now); removed > 0 {
			c.log.Debugf("Swept %d expired clips", removed)
		}
	}
}

// start launches a detached refresh unless one is already running, and
// returns the running one.
func (c *Controller) start(ctx context.Context) *refresh {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

// startLocked is start with c.mu held.
func (c *Controller) startLocked(ctx context.Context) *refresh {
	if c.pending != nil {
		c.log.Debugf("Catalog refresh already in flight")
		return c.pending
	}
	if c.catalog == nil {
		r := &refresh{done: make(chan struct{})}
		close(r.done)
		return r
	}

	r := &refresh{done: make(chan struct{})}
	c.pending = r
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		began := time.Now()
		cat, err := c.catalog.Reload(context.WithoutCancel(ctx))
		if err != nil {
			c.log.Errorf("Catalog refresh failed, keeping previous catalog: %v", err)
		} else {
			c.log.Infof("Catalog refreshed: %d songs in %s", cat.Len(), time.Since(began).Round(time.Millisecond))
		}

		c.mu.Lock()
		r.err = err
		c.pending = nil
		c.mu.Unlock()
		close(r.done)
	}()
	return r
}

// Refresh reloads the catalog now, joining a refresh that is already
// running, and waits for it.
func (c *Controller) Refresh(ctx context.Context) error {
	r := c.start(ctx)
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await blocks while a catalog refresh is in flight.
func (c *Controller) Await(ctx context.Context) error {
	c.mu.Lock()
	r := c.pending
	c.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs Tick every interval until Stop or ctx cancellation.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	c.stop = make(chan struct{})
	c.loop = make(chan struct{})
	stop, loop := c.stop, c.loop
	c.mu.Unlock()

	go func() {
		defer close(loop)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Tick(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the tick loop and waits for any refresh in flight.
func (c *Controller) Stop() {
	c.mu.Lock()
	stop, loop := c.stop, c.loop
	c.stop, c.loop = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-loop
	}
	c.wg.Wait()
}
