// Package picker implements the per-field selection controller: a small
// state machine that fetches candidate records, maintains the record
// index, and turns user actions (select, free text, clear) into emitted
// field values. One Controller per field instance; no state is shared
// across instances.
package picker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/index"
	"github.com/sinharash/entitypick/internal/refcodec"
)

// State of the controller's field.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// FetchError wraps a catalog fetch failure. It is recoverable: the
// controller keeps its last-good index and the field stays interactive
// when arbitrary values are allowed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch failed: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// ErrInputRejected is returned by Input when free text matches no record
// and arbitrary values are disallowed. The emitted value is unchanged.
type ErrInputRejected struct {
	Text string
	Hint string
}

func (e *ErrInputRejected) Error() string {
	msg := fmt.Sprintf("input %q matches no record", e.Text)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// Option is one selectable entry, in fetch order.
type Option struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
}

// Config describes one picker field.
type Config struct {
	// Template renders each record's display label.
	Template string
	// Filter selects candidate records. Nil with AllowedKinds set
	// falls back to the kind shorthand.
	Filter []filter.Spec
	// AllowedKinds is the shorthand kind list applied when Filter is
	// empty.
	AllowedKinds []string
	// AllowArbitraryValues permits free text that matches no record.
	// Nil means true.
	AllowArbitraryValues *bool
	// Codec configures composite value encoding for this field.
	Codec refcodec.Options
	// Value is the field's existing stored value, re-resolved
	// best-effort once records arrive.
	Value string
	// Required and Disabled mirror the host form's field flags.
	Required bool
	Disabled bool

	// OnChange receives the field's new value; nil clears it. Called
	// outside the controller's lock.
	OnChange func(value *string)
	// OnRefChange, when set, configures the companion-field encoding:
	// the canonical identifier goes to the companion and OnChange
	// receives the bare label instead of a composite value.
	OnRefChange func(ref *string)
}

func (c Config) allowArbitrary() bool {
	return c.AllowArbitraryValues == nil || *c.AllowArbitraryValues
}

// Controller is the selection state machine for one field.
type Controller struct {
	store catalog.Store
	cfg   Config

	mu      sync.Mutex
	query   catalog.Query
	state   State
	gen     uint64
	ix      *index.Index
	lastErr error
	value   *string
	label   string
	ref     *string
}

// New validates the configuration and returns an Idle controller. It
// does not fetch; call Refresh to start loading.
func New(store catalog.Store, cfg Config) (*Controller, error) {
	q, err := filter.Build(cfg.Filter, cfg.AllowedKinds)
	if err != nil {
		return nil, err
	}
	c := &Controller{store: store, cfg: cfg, query: q, state: StateIdle}
	if cfg.Value != "" {
		v := cfg.Value
		c.value = &v
		c.label = v
	}
	return c, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the last fetch error, if the controller is Failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Value returns the field's current emitted value, or nil when unset.
func (c *Controller) Value() *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return nil
	}
	v := *c.value
	return &v
}

// Label returns the display text for the current value. When the value
// could not be re-resolved it is the raw stored text.
func (c *Controller) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// Options lists the selectable records in fetch order. Empty until the
// first successful fetch.
func (c *Controller) Options() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ix == nil {
		return nil
	}
	refs := c.ix.Refs()
	opts := make([]Option, 0, len(refs))
	for _, ref := range refs {
		label, _ := c.ix.Label(ref)
		opts = append(opts, Option{Ref: ref, Label: label})
	}
	return opts
}

// Interactive reports whether the field accepts user actions: disabled
// fields never do, and a Failed field stays interactive only in free
// text mode.
func (c *Controller) Interactive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.Disabled {
		return false
	}
	if c.state == StateFailed && c.ix == nil {
		return c.cfg.allowArbitrary()
	}
	return true
}

// Refresh starts an asynchronous fetch for the current filter. The
// returned channel closes when this fetch completes, whether or not its
// result was applied; inspect State afterwards. Only the most recently
// initiated fetch may update the index — earlier in-flight fetches are
// discarded on completion.
func (c *Controller) Refresh(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	q := c.query
	c.state = StateLoading
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		records, err := c.store.FindRecords(ctx, q)

		c.mu.Lock()
		if gen != c.gen {
			// A newer fetch started; this result is stale.
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.state = StateFailed
			c.lastErr = &FetchError{Err: err}
			// Last-good index is retained.
			c.mu.Unlock()
			return
		}
		c.ix = index.Build(records, c.cfg.Template)
		c.state = StateReady
		c.lastErr = nil
		c.resolveCurrentLocked()
		c.mu.Unlock()
	}()
	return done
}

// SetFilter replaces the field's filter. A filter with the same query
// identity triggers no fetch; otherwise the previous index is discarded
// lazily by the refresh it starts.
func (c *Controller) SetFilter(ctx context.Context, specs []filter.Spec) (<-chan struct{}, error) {
	q, err := filter.Build(specs, c.cfg.AllowedKinds)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if q.Key() == c.query.Key() {
		c.mu.Unlock()
		done := make(chan struct{})
		close(done)
		return done, nil
	}
	c.cfg.Filter = specs
	c.query = q
	c.mu.Unlock()

	return c.Refresh(ctx), nil
}

// Select picks a record by its canonical reference, encodes it, and
// emits the new value. Valid only once records are loaded.
func (c *Controller) Select(ref string) error {
	c.mu.Lock()
	if c.cfg.Disabled {
		c.mu.Unlock()
		return fmt.Errorf("field is disabled")
	}
	if c.ix == nil {
		c.mu.Unlock()
		return fmt.Errorf("no records loaded")
	}
	rec, ok := c.ix.Lookup(ref)
	if !ok {
		c.mu.Unlock()
		return &refcodec.NotFoundError{Value: ref}
	}
	value, label := c.encode(rec)
	refStr := rec.Ref().String()
	c.value = &value
	c.label = label
	c.ref = &refStr
	emit := c.emitLocked()
	c.mu.Unlock()
	emit()
	return nil
}

// Input handles free text typed into the field. Text matching a loaded
// record's label exactly selects that record; otherwise the raw text is
// emitted when arbitrary values are allowed and rejected (value
// unchanged) when not.
func (c *Controller) Input(text string) error {
	c.mu.Lock()
	if c.cfg.Disabled {
		c.mu.Unlock()
		return fmt.Errorf("field is disabled")
	}
	if c.ix != nil {
		if refs := c.ix.LookupByLabel(text); len(refs) > 0 {
			if len(refs) > 1 && c.cfg.Codec.OnAmbiguous == refcodec.FailOnAmbiguous {
				c.mu.Unlock()
				return &refcodec.AmbiguousError{Label: text, Refs: refs}
			}
			ref := refs[0]
			c.mu.Unlock()
			return c.Select(ref)
		}
	}
	if !c.cfg.allowArbitrary() {
		var hint string
		if c.ix != nil {
			hint = c.ix.Suggest(text)
		}
		c.mu.Unlock()
		return &ErrInputRejected{Text: text, Hint: hint}
	}
	v := text
	c.value = &v
	c.label = text
	c.ref = nil
	emit := c.emitLocked()
	c.mu.Unlock()
	emit()
	return nil
}

// Clear unsets the field's value.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.value = nil
	c.label = ""
	c.ref = nil
	emit := c.emitLocked()
	c.mu.Unlock()
	emit()
}

// encode produces the value/label pair for a selected record under the
// configured encoding. With a companion field the emitted value is the
// bare label; the identifier travels separately.
func (c *Controller) encode(rec catalog.Record) (value, label string) {
	label = refcodec.Encode(rec, c.cfg.Template, refcodec.Options{
		Mode:      refcodec.ModeLabelOnly,
		Separator: c.cfg.Codec.Separator,
	})
	if c.cfg.OnRefChange != nil {
		return label, label
	}
	return refcodec.Encode(rec, c.cfg.Template, c.cfg.Codec), label
}

// emitLocked snapshots the current value and returns a closure that
// fires the callbacks. Call it after releasing the lock.
func (c *Controller) emitLocked() func() {
	onChange := c.cfg.OnChange
	onRef := c.cfg.OnRefChange
	var value *string
	if c.value != nil {
		v := *c.value
		value = &v
	}
	var ref *string
	if onRef != nil && c.ref != nil {
		r := *c.ref
		ref = &r
	}
	return func() {
		if onChange != nil {
			onChange(value)
		}
		if onRef != nil {
			onRef(ref)
		}
	}
}

// resolveCurrentLocked re-resolves the field's existing value against
// the fresh index for initial display. Best-effort: failure leaves the
// field showing the raw stored text. Never emits.
func (c *Controller) resolveCurrentLocked() {
	if c.value == nil {
		return
	}
	kinds := c.query.KindValues()
	var kind string
	if len(kinds) == 1 {
		kind = kinds[0]
	}
	dec, err := refcodec.Decode(*c.value, kind, "", c.ix, c.cfg.Codec)
	if err != nil {
		c.label = *c.value
		return
	}
	refStr := dec.Ref.String()
	c.ref = &refStr
	c.label = dec.Label
	if c.label == "" {
		if lbl, ok := c.ix.Label(dec.Ref.String()); ok {
			c.label = lbl
		}
	}
}
