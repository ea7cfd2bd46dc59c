// Package throttle enforces a soft per-identifier cap on form
// submissions. One submission derives several identifiers (email,
// company, name+email, form type) and each is tracked independently in a
// single JSON mapping held by a pluggable Storage backend. The throttle
// is a UX deterrent against accidental and low-effort spam, not a
// security boundary: storage loss resets every counter, and the real
// abuse control is the challenge verification performed by the handlers.
package throttle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Entry tracks submissions for one identifier within the current window.
type Entry struct {
	Timestamp   int64    `json:"timestamp"` // epoch-ms of window start
	Count       int      `json:"count"`
	Identifiers []string `json:"identifiers"`
}

// Config defines the submission cap.
type Config struct {
	MaxSubmissions int           `env:"THROTTLE_MAX_SUBMISSIONS" envDefault:"3"`
	Window         time.Duration `env:"THROTTLE_WINDOW" envDefault:"5m"`
}

// evictionAge is the cutoff used when a Save fails: everything older than
// this is dropped before the single retry.
const evictionAge = time.Hour

// Result reports the outcome of a Check call.
type Result struct {
	Limited    bool
	RetryAfter time.Duration // rounded up to whole seconds
}

// Throttle applies the per-identifier submission cap.
type Throttle struct {
	storage Storage
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger supplies a logger for degraded-mode diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(t *Throttle) {
		if log != nil {
			t.log = log
		}
	}
}

// New creates a Throttle over the given storage backend.
func New(storage Storage, cfg Config, opts ...Option) (*Throttle, error) {
	if storage == nil {
		return nil, ErrStorageRequired
	}
	if cfg.MaxSubmissions <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.Window <= 0 {
		return nil, ErrInvalidConfig
	}

	t := &Throttle{
		storage: storage,
		cfg:     cfg,
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Check reports whether a submission with the given fields is currently
// limited. It never mutates counts, but it does prune expired entries and
// persist the pruned mapping (lazy expiry). The first identifier over the
// cap wins. Storage failures degrade open: a broken backend never blocks
// a submission.
func (t *Throttle) Check(ctx context.Context, fields Fields) Result {
	data := t.load(ctx)
	now := t.now()

	for _, id := range fields.Identifiers() {
		entry, ok := data[id]
		if !ok {
			continue
		}
		elapsed := time.Duration(now.UnixMilli()-entry.Timestamp) * time.Millisecond
		if elapsed >= t.cfg.Window {
			// Expired; Record will reset it.
			continue
		}
		if entry.Count >= t.cfg.MaxSubmissions {
			remaining := t.cfg.Window - elapsed
			return Result{Limited: true, RetryAfter: ceilSeconds(remaining)}
		}
	}

	return Result{}
}

// Record counts a submission against every derived identifier. Callers
// must pass the same raw field values previously given to Check, or the
// per-identifier cap silently stops holding. Persistence failures are
// logged and swallowed.
func (t *Throttle) Record(ctx context.Context, fields Fields) {
	data := t.load(ctx)
	now := t.now().UnixMilli()

	for _, id := range fields.Identifiers() {
		entry, ok := data[id]
		if ok && time.Duration(now-entry.Timestamp)*time.Millisecond < t.cfg.Window {
			entry.Count++
			data[id] = entry
			continue
		}
		// Absent or window elapsed: start a fresh window.
		data[id] = Entry{Timestamp: now, Count: 1, Identifiers: []string{id}}
	}

	t.save(ctx, data)
}

// Reset clears all throttle state.
func (t *Throttle) Reset(ctx context.Context) error {
	return t.storage.Clear(ctx)
}

// load reads the mapping and lazily purges expired entries, persisting
// the pruned mapping when anything was removed. Any failure yields an
// empty mapping.
func (t *Throttle) load(ctx context.Context) map[string]Entry {
	raw, err := t.storage.Load(ctx)
	if err != nil {
		t.log.WarnContext(ctx, "throttle storage read failed, degrading open", "error", err)
		return map[string]Entry{}
	}
	if len(raw) == 0 {
		return map[string]Entry{}
	}

	var data map[string]Entry
	if err := json.Unmarshal(raw, &data); err != nil {
		t.log.WarnContext(ctx, "throttle state corrupted, starting fresh", "error", err)
		return map[string]Entry{}
	}

	now := t.now().UnixMilli()
	pruned := false
	for id, entry := range data {
		if time.Duration(now-entry.Timestamp)*time.Millisecond >= t.cfg.Window {
			delete(data, id)
			pruned = true
		}
	}
	if pruned {
		t.save(ctx, data)
	}
	return data
}

// save persists the mapping. On failure it evicts entries older than
// evictionAge and retries once; a second failure is swallowed so that
// rate limiting degrades open rather than blocking submissions.
func (t *Throttle) save(ctx context.Context, data map[string]Entry) {
	raw, err := json.Marshal(data)
	if err != nil {
		t.log.WarnContext(ctx, "throttle state marshal failed", "error", err)
		return
	}
	err = t.storage.Save(ctx, raw)
	if err == nil {
		return
	}
	t.log.WarnContext(ctx, "throttle storage write failed, evicting old entries", "error", err)

	cutoff := t.now().Add(-evictionAge).UnixMilli()
	for id, entry := range data {
		if entry.Timestamp < cutoff {
			delete(data, id)
		}
	}
	raw, err = json.Marshal(data)
	if err != nil {
		return
	}
	if err := t.storage.Save(ctx, raw); err != nil {
		t.log.WarnContext(ctx, "throttle storage write failed after eviction", "error", err)
	}
}

func ceilSeconds(d time.Duration) time.Duration {
	secs := (d + time.Second - 1) / time.Second
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
