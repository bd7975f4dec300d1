package renderer

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/usherhq/usher/config"
	"github.com/usherhq/usher/models"
)

// ErrGovernorStopped is returned by Acquire after Stop.
var ErrGovernorStopped = errors.New("slot governor stopped")

// SlotGovernor bounds how many headless browsers the service runs at once.
// Every scrape session launches its own browser; the governor only decides
// how many sessions may hold one. Under heap pressure it parks idle slots
// so new sessions queue instead of piling more Chrome processes onto a
// struggling host.
type SlotGovernor struct {
	min          int
	hardMax      int
	memThreshold float64
	log          *slog.Logger

	slots chan struct{}

	mu     sync.Mutex
	parked int
	inUse  int

	stopped chan struct{}
	stopOne sync.Once
}

// NewSlotGovernor creates and starts a governor. All hardMax slots begin
// available; the sampling loop parks and unparks them as heap pressure
// crosses the threshold.
func NewSlotGovernor(cfg config.SlotConfig, logger *slog.Logger) *SlotGovernor {
	if cfg.Min < 1 {
		cfg.Min = 1
	}
	if cfg.HardMax < cfg.Min {
		cfg.HardMax = cfg.Min
	}
	if cfg.MemThreshold <= 0 {
		cfg.MemThreshold = 0.9
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &SlotGovernor{
		min:          cfg.Min,
		hardMax:      cfg.HardMax,
		memThreshold: cfg.MemThreshold,
		log:          logger,
		slots:        make(chan struct{}, cfg.HardMax),
		stopped:      make(chan struct{}),
	}
	for i := 0; i < cfg.HardMax; i++ {
		g.slots <- struct{}{}
	}

	go g.governLoop()
	return g
}

// Acquire blocks until a browser slot is free, the context ends, or the
// governor stops.
func (g *SlotGovernor) Acquire(ctx context.Context) error {
	select {
	case <-g.slots:
		g.mu.Lock()
		g.inUse++
		g.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-g.stopped:
		return ErrGovernorStopped
	}
}

// Release returns a slot. Callers must pair every successful Acquire with
// exactly one Release.
func (g *SlotGovernor) Release() {
	g.mu.Lock()
	g.inUse--
	g.mu.Unlock()
	select {
	case g.slots <- struct{}{}:
	default:
		// Channel full means a bookkeeping bug; drop rather than block.
		g.log.Warn("slot governor: release with no capacity")
	}
}

// Stats reports the current slot state for the health endpoint.
func (g *SlotGovernor) Stats() models.SlotStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.SlotStats{
		Target: g.hardMax - g.parked,
		InUse:  g.inUse,
		Max:    g.hardMax,
	}
}

// Stop shuts down the sampling loop and unblocks waiters.
func (g *SlotGovernor) Stop() {
	g.stopOne.Do(func() { close(g.stopped) })
}

// governLoop periodically samples heap usage and adjusts the slot target
// one step per tick.
func (g *SlotGovernor) governLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopped:
			return
		case <-ticker.C:
			g.adjust()
		}
	}
}

func (g *SlotGovernor) adjust() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var pressure float64
	if m.HeapSys > 0 {
		pressure = float64(m.HeapInuse) / float64(m.HeapSys)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if pressure > g.memThreshold {
		if g.hardMax-g.parked <= g.min {
			return
		}
		// Park an idle slot; if all are in use try again next tick.
		select {
		case <-g.slots:
			g.parked++
			g.log.Debug("slot governor: parked slot",
				"pressure", pressure, "target", g.hardMax-g.parked)
		default:
		}
		return
	}

	if g.parked > 0 {
		g.parked--
		g.slots <- struct{}{}
		g.log.Debug("slot governor: unparked slot",
			"pressure", pressure, "target", g.hardMax-g.parked)
	}
}
