package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"petdoor_hub/internal/device"
	"petdoor_hub/internal/logger"
	"petdoor_hub/internal/models"
)

// Default cadences. The fast plane is the door's local API and is cheap to
// poll; the slow plane is the rate-limited timeline backend, refreshed far
// less often to avoid spamming it.
const (
	DefaultFastInterval = 5 * time.Second
	DefaultSlowInterval = 120 * time.Second
	DefaultCallTimeout  = 10 * time.Second
)

var (
	ErrNotInitialized = errors.New("coordinator is not initialized")
	ErrAlreadyStarted = errors.New("coordinator is already started")
	ErrUnknownKey     = errors.New("unknown state key")
)

// Config carries the construction parameters of the coordinator.
type Config struct {
	FastInterval time.Duration
	SlowInterval time.Duration
	CallTimeout  time.Duration

	// SlowEnabled turns slow-plane polling on. When off, the slow map stays
	// empty and the gate is never evaluated.
	SlowEnabled bool

	// IncludeAllEvents also fetches pets without an assigned tag when the
	// roster is resolved at startup.
	IncludeAllEvents bool
}

func (c Config) withDefaults() Config {
	if c.FastInterval <= 0 {
		c.FastInterval = DefaultFastInterval
	}
	if c.SlowInterval <= 0 {
		c.SlowInterval = DefaultSlowInterval
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	return c
}

// Coordinator maintains the eventually-consistent snapshot of the door. One
// ticker drives the fast cycle; the slow cycle is gated inside the same tick
// so both planes share one outstanding-request guard and one failure path.
// Command submissions may race a scheduled refresh; both writers serialize
// through the StateStore, last writer wins per key.
type Coordinator struct {
	client device.Client
	cfg    Config
	log    *logger.Logger

	store *StateStore
	avail *AvailabilityTracker
	subs  *subscriberRegistry

	// set once by Initialize, immutable afterwards
	identity    models.DeviceIdentity
	pets        []models.Pet
	initialized bool

	// refreshMu is the single-in-flight guard: a tick that cannot take it
	// immediately is skipped rather than queued.
	refreshMu sync.Mutex

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

// New builds a coordinator around the given device client. Call Initialize
// before Start.
func New(client device.Client, cfg Config, log *logger.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		cfg:    cfg.withDefaults(),
		log:    log,
		store:  NewStateStore(),
		avail:  NewAvailabilityTracker(),
		subs:   newSubscriberRegistry(log),
	}
}

// Initialize resolves the device identity and pet roster, then performs one
// blocking refresh so subscribers have data the moment they attach. Any
// failure here is fatal to startup and returned to the caller; the
// coordinator does not retry initialization itself.
func (c *Coordinator) Initialize(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	identity, err := c.client.ResolveIdentity(callCtx)
	if err != nil {
		return fmt.Errorf("resolve device identity: %w", err)
	}

	petsCtx, cancelPets := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancelPets()

	pets, err := c.client.AvailablePets(petsCtx, c.cfg.IncludeAllEvents)
	if err != nil {
		return fmt.Errorf("resolve pet roster: %w", err)
	}

	c.identity = identity
	c.pets = pets
	c.initialized = true

	// First refresh is blocking and its failure aborts startup, like any
	// other initialization step.
	if err := c.refresh(); err != nil {
		c.initialized = false
		return fmt.Errorf("initial refresh: %w", err)
	}

	c.log.Infow("coordinator_initialized",
		"device", identity.Name,
		"device_id", identity.ID,
		"sw_version", identity.SWVersion,
		"pets", len(pets),
	)
	return nil
}

// Start launches the scheduler loop. The loop stops when ctx is canceled or
// Stop is called.
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.initialized {
		return ErrNotInitialized
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	// The loop gets its own reference: Stop nils the field, so run must
	// never read it.
	go c.run(runCtx, done)
	return nil
}

// Stop halts the ticker and waits for any in-flight refresh to complete or
// time out. Device calls carry their own deadlines, so nothing is aborted
// mid-flight.
func (c *Coordinator) Stop() {
	c.lifecycleMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.done = nil
	c.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Coordinator) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	t := time.NewTicker(c.cfg.FastInterval)
	defer t.Stop()

	c.log.Infow("coordinator_started",
		"fast_interval", c.cfg.FastInterval,
		"slow_interval", c.cfg.SlowInterval,
		"slow_enabled", c.cfg.SlowEnabled,
	)

	for {
		select {
		case <-ctx.Done():
			c.log.Infow("coordinator_stopped")
			return
		case <-t.C:
			// Refresh errors are recovered locally: availability flags are
			// already updated, the previous snapshot is retained and the
			// next tick retries.
			if err := c.refresh(); err != nil && !errors.Is(err, errRefreshInFlight) {
				c.log.Warnw("refresh_failed", "err", err)
			}
		}
	}
}

var errRefreshInFlight = errors.New("refresh already in flight")

// refresh runs one fast cycle and, when the gate has elapsed, the nested
// slow cycle. The fast fetch always completes before the gate is evaluated.
// Subscribers are notified after each successful merge, never with a
// half-merged snapshot.
func (c *Coordinator) refresh() error {
	if !c.refreshMu.TryLock() {
		// Previous fetch still outstanding: skip this tick instead of
		// queueing a second request against a slow device.
		c.log.Debugw("refresh_skipped_in_flight")
		return errRefreshInFlight
	}
	defer c.refreshMu.Unlock()

	fastErr := c.refreshFast()
	slowErr := c.refreshSlow()

	if fastErr != nil {
		return fastErr
	}
	return slowErr
}

func (c *Coordinator) refreshFast() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
	defer cancel()

	fast, err := c.client.FetchFastState(ctx)
	if err != nil {
		c.avail.MarkFastFailure()
		c.logFetchFailure("fast_refresh_failed", err)
		return err
	}

	snap := c.store.MergeFast(fast)
	keys := make([]string, 0, len(fast))
	for k := range fast {
		keys = append(keys, k)
	}
	c.avail.MarkFastSuccess(keys)
	c.subs.notifyAll(snap)
	return nil
}

func (c *Coordinator) refreshSlow() error {
	if !c.cfg.SlowEnabled || !c.slowDue(time.Now()) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
	defer cancel()

	slow, err := c.client.FetchSlowState(ctx, c.identity.ID)
	if err != nil {
		// Leave the map and timestamp untouched: consumers keep the last
		// fetched values and the next fast tick retries immediately.
		c.avail.MarkSlowFailure()
		c.logFetchFailure("slow_refresh_failed", err)
		return err
	}

	snap := c.store.MergeSlow(slow, time.Now())
	c.avail.MarkSlowSuccess()
	c.subs.notifyAll(snap)
	return nil
}

// slowDue reports whether the slow-cycle gate has elapsed, or no slow
// refresh has ever succeeded.
func (c *Coordinator) slowDue(now time.Time) bool {
	last := c.store.LastSlowRefresh()
	return last.IsZero() || now.Sub(last) >= c.cfg.SlowInterval
}

// logFetchFailure keeps protocol failures distinguishable from transport
// failures in the logs, even though both count the same for availability.
func (c *Coordinator) logFetchFailure(msg string, err error) {
	switch {
	case errors.Is(err, device.ErrProtocol):
		c.log.Errorw(msg, "class", "protocol", "err", err)
	case errors.Is(err, device.ErrTimeout):
		c.log.Warnw(msg, "class", "timeout", "err", err)
	default:
		c.log.Warnw(msg, "class", "connectivity", "err", err)
	}
}

// Submit issues a remote write for a single fast-plane key. On success the
// value is applied to the cache immediately and subscribers see it before the
// next scheduled refresh; the door itself settles slowly, so the very next
// refresh may still report the old value and win. On failure the cached
// value is untouched and the key is flagged unavailable.
func (c *Coordinator) Submit(ctx context.Context, key string, value bool) error {
	if !models.IsValidFastKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	if err := c.client.WriteState(callCtx, key, value); err != nil {
		c.avail.MarkKeyFailure(key)
		c.log.Warnw("write_failed", "key", key, "value", value, "err", err)
		return fmt.Errorf("write %s=%t: %w", key, value, err)
	}

	snap := c.store.ApplyOptimistic(key, value)
	c.avail.MarkKeySuccess(key)
	c.subs.notifyAll(snap)
	return nil
}

// Snapshot returns the current merged cache without blocking.
func (c *Coordinator) Snapshot() models.Snapshot {
	return c.store.Read()
}

// Identity returns the device descriptor resolved at startup.
func (c *Coordinator) Identity() models.DeviceIdentity {
	return c.identity
}

// Pets returns the roster resolved at startup.
func (c *Coordinator) Pets() []models.Pet {
	return c.pets
}

// Availability returns the advisory per-key and per-plane flags.
func (c *Coordinator) Availability() Availability {
	return c.avail.Read()
}

// Subscribe registers a handler called synchronously after every merge.
func (c *Coordinator) Subscribe(fn SubscriberFunc) *Subscription {
	return c.subs.add(fn)
}
