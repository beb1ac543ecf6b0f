// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	jerrors "github.com/juju/errors"
	"github.com/rs/zerolog"

	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
	"github.com/tamzrod/bydbox-reader/internal/writer"
)

// Session abstracts the connection lifecycle the poller needs.
type Session interface {
	Connect(ctx context.Context, maxAttempts int) error
	EnsureConnected(ctx context.Context) error
}

// Reader abstracts the device reads the poller schedules.
type Reader interface {
	Init(ctx context.Context) error
	UpdateBMU(ctx context.Context) error
	UpdateAllBMS(ctx context.Context) error
	UpdateAllLogs(ctx context.Context) (int, error)
	UpdateLogData(ctx context.Context, unit, depth int) (int, error)
	RefreshLogViews()
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	ScanInterval time.Duration
	BMSInterval  time.Duration
	LogInterval  time.Duration
	MinGap       time.Duration

	// ConnectAttempts bounds the initial connect in Start.
	ConnectAttempts int
}

// Poller runs the BMU, BMS and log cadences over one session.
// Only one tick executes at a time; a tick arriving meanwhile is dropped.
type Poller struct {
	cfg     Config
	session Session
	reader  Reader
	data    *telemetry.Map
	logs    *logstore.Store

	persister logstore.Persister
	out       writer.Writer
	health    writer.StatusWriter
	tracker   *status.Tracker

	log zerolog.Logger
	now func() time.Time

	state atomic.Int32

	// set once the topology has been read
	initialized atomic.Bool

	// guarded by mu
	mu       sync.Mutex
	pending  *HistoryRequest
	lastTick time.Time
	lastBMS  time.Time
	lastLogs time.Time

	saves sync.WaitGroup
}

// Deps are the collaborators of a Poller. Persister, Out and Health may be nil.
type Deps struct {
	Session   Session
	Reader    Reader
	Data      *telemetry.Map
	Logs      *logstore.Store
	Persister logstore.Persister
	Out       writer.Writer
	Health    writer.StatusWriter
	Log       zerolog.Logger
}

// New creates a poller with immutable config.
func New(cfg Config, d Deps) (*Poller, error) {
	if cfg.ScanInterval <= 0 {
		return nil, errors.New("poller: scan interval must be > 0")
	}
	if cfg.BMSInterval <= 0 || cfg.LogInterval <= 0 {
		return nil, errors.New("poller: bms and log intervals must be > 0")
	}
	if d.Session == nil || d.Reader == nil || d.Data == nil || d.Logs == nil {
		return nil, errors.New("poller: session, reader, data and logs are required")
	}
	if d.Out == nil {
		d.Out = writer.Multi()
	}
	if d.Health == nil {
		d.Health = writer.MultiStatus()
	}
	return &Poller{
		cfg:       cfg,
		session:   d.Session,
		reader:    d.Reader,
		data:      d.Data,
		logs:      d.Logs,
		persister: d.Persister,
		out:       d.Out,
		health:    d.Health,
		tracker:   status.NewTracker(),
		log:       d.Log,
		now:       time.Now,
	}, nil
}

// Start connects, reads the topology and publishes the persisted log views.
// Health reflects the outcome.
func (p *Poller) Start(ctx context.Context) error {
	p.publishHealth()

	err := p.session.Connect(ctx, p.cfg.ConnectAttempts)
	if err == nil {
		err = p.reader.Init(ctx)
	}
	if err != nil {
		err = jerrors.Annotate(err, "startup")
	} else {
		p.reader.RefreshLogViews()
		p.initialized.Store(true)
	}

	if p.tracker.Observe(err) {
		p.publishHealth()
	}
	if err := p.out.Write(ctx, p.data.Snapshot()); err != nil {
		p.log.Warn().Err(err).Msg("writer error")
	}
	return err
}

// Initialized reports whether the topology has been read.
func (p *Poller) Initialized() bool {
	return p.initialized.Load()
}

// State reports whether a tick is executing.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Health returns the current session health.
func (p *Poller) Health() status.Snapshot {
	return p.tracker.Snapshot()
}

// StartUpdateLogHistory schedules a deep-history pull for the next tick.
// A later request replaces an unserved one.
func (p *Poller) StartUpdateLogHistory(unit, depth int) {
	p.mu.Lock()
	p.pending = &HistoryRequest{Unit: unit, Depth: depth}
	p.mu.Unlock()
	p.log.Info().Int("unit", unit).Int("depth", depth).Msg("deep history scheduled")
}

// Pending returns the unserved deep-history request, if any.
func (p *Poller) Pending() (HistoryRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return HistoryRequest{}, false
	}
	return *p.pending, true
}

// Tick performs one scheduling pass.
// Failures are reported in the result and never escape as panics or exits.
func (p *Poller) Tick(ctx context.Context) TickResult {
	res := TickResult{At: p.now()}

	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		res.Skipped = SkipBusy
		p.log.Debug().Msg("tick dropped, previous tick still running")
		return res
	}
	defer p.state.Store(int32(StateIdle))

	p.mu.Lock()
	if !p.lastTick.IsZero() && res.At.Sub(p.lastTick) < p.cfg.MinGap {
		p.mu.Unlock()
		res.Skipped = SkipTooSoon
		p.log.Debug().Dur("since_last", res.At.Sub(p.lastTick)).Msg("tick rejected, too soon")
		return res
	}
	p.lastTick = res.At
	pending := p.pending
	runBMS := p.lastBMS.IsZero() || res.At.Sub(p.lastBMS) >= p.cfg.BMSInterval
	runLogs := p.lastLogs.IsZero() || res.At.Sub(p.lastLogs) >= p.cfg.LogInterval
	p.mu.Unlock()

	if err := p.session.EnsureConnected(ctx); err != nil {
		res.Err = jerrors.Annotate(err, "tick aborted")
		p.log.Error().Err(err).Msg("connection unavailable, tick aborted")
		p.finish(ctx, res)
		return res
	}

	var errs []error

	// ---- topology ----
	// BMS and log cadences need the tower count; until Init succeeds only
	// the BMU is read.
	if !p.initialized.Load() {
		if err := p.reader.Init(ctx); err != nil {
			errs = append(errs, jerrors.Annotate(err, "topology"))
			p.log.Error().Err(err).Msg("topology read failed")
			pending, runBMS, runLogs = nil, false, false
		} else {
			p.reader.RefreshLogViews()
			p.initialized.Store(true)
			p.log.Info().Msg("topology read, all cadences enabled")
		}
	}

	// ---- deep history (exclusive) ----
	if pending != nil {
		res.Ran = append(res.Ran, CadenceHistory)
		n, err := p.reader.UpdateLogData(ctx, pending.Unit, pending.Depth)
		res.NewLogs += n
		if err != nil {
			errs = append(errs, jerrors.Annotatef(err, "log history unit %d", pending.Unit))
		}
		p.reader.RefreshLogViews()

		p.mu.Lock()
		if p.pending == pending {
			p.pending = nil
		}
		p.mu.Unlock()

		res.Err = joinErrors(errs)
		p.finish(ctx, res)
		return res
	}

	// ---- bmu (every tick) ----
	res.Ran = append(res.Ran, CadenceBMU)
	if err := p.reader.UpdateBMU(ctx); err != nil {
		errs = append(errs, err)
		p.log.Error().Err(err).Msg("bmu status failed")
	}

	// ---- bms ----
	if runBMS {
		res.Ran = append(res.Ran, CadenceBMS)
		if err := p.reader.UpdateAllBMS(ctx); err != nil {
			errs = append(errs, err)
			p.log.Error().Err(err).Msg("bms status failed")
		}
		p.mu.Lock()
		p.lastBMS = res.At
		p.mu.Unlock()
	}

	// ---- logs ----
	if runLogs {
		res.Ran = append(res.Ran, CadenceLogs)
		n, err := p.reader.UpdateAllLogs(ctx)
		res.NewLogs += n
		if err != nil {
			errs = append(errs, err)
			p.log.Error().Err(err).Msg("log retrieval failed")
		}
		p.mu.Lock()
		p.lastLogs = res.At
		p.mu.Unlock()
	}

	res.Err = joinErrors(errs)
	p.finish(ctx, res)
	return res
}

// finish updates health, notifies writers and schedules persistence.
func (p *Poller) finish(ctx context.Context, res TickResult) {
	if p.tracker.Observe(res.Err) {
		p.publishHealth()
	}

	// an aborted tick read nothing
	if len(res.Ran) > 0 {
		if err := p.out.Write(ctx, p.data.Snapshot()); err != nil {
			p.log.Warn().Err(err).Msg("writer error")
		}
	}

	if res.NewLogs > 0 && p.persister != nil {
		p.saves.Add(1)
		go func() {
			defer p.saves.Done()
			if err := p.persister.Save(p.logs); err != nil {
				p.log.Error().Err(err).Msg("log persistence failed")
			}
		}()
	}

	ev := p.log.Info()
	if res.Err != nil {
		ev = p.log.Warn().Err(res.Err)
	}
	ev.Strs("ran", cadenceNames(res.Ran)).Int("new_logs", res.NewLogs).Msg("tick done")
}

func (p *Poller) publishHealth() {
	snap := p.tracker.Snapshot()
	p.data.SetAll(status.Encode(snap))
	if err := p.health.WriteStatus(snap); err != nil {
		p.log.Warn().Err(err).Msg("status write failed")
	}
}

// second is driven by the 1 Hz ticker in Run.
func (p *Poller) second() {
	if p.tracker.Second() {
		p.publishHealth()
	}
}

// Wait blocks until in-flight persistence finished.
func (p *Poller) Wait() {
	p.saves.Wait()
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return &tickError{errs: errs}
}

// tickError keeps every failure of one tick. errors.As sees the first one.
type tickError struct {
	errs []error
}

func (e *tickError) Error() string {
	parts := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, " | ")
}

func (e *tickError) Unwrap() error { return e.errs[0] }

func cadenceNames(cs []Cadence) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}
