// Package ordering maintains record positions within sortable sections.
package ordering

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/stencil/internal/model"
)

// Store is the subset of storage the updater needs.
type Store interface {
	SiblingRecords(ctx context.Context, sectionID int64) ([]*model.Record, error)
	MaxPosition(ctx context.Context, sectionID int64) (int, bool, error)
	UpdatePosition(ctx context.Context, id int64, position int) error
}

// Updater assigns record positions.
type Updater struct {
	store  Store
	logger *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// New creates an Updater backed by store.
func New(store Store, opts ...Option) *Updater {
	u := &Updater{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Request describes one ordering operation. A nil From and To appends the
// record to the end of its section.
type Request struct {
	Record *model.Record
	From   *int
	To     *int
}

// Perform runs req as an append or a move.
func (u *Updater) Perform(ctx context.Context, req Request) error {
	if req.Record == nil {
		return fmt.Errorf("ordering: nil record")
	}
	if req.From == nil && req.To == nil {
		return u.Append(ctx, req.Record)
	}
	if req.From == nil || req.To == nil {
		return &model.ValidationError{Fields: map[string]string{
			"position": "from and to must be given together",
		}}
	}
	return u.Move(ctx, req.Record, *req.From, *req.To)
}

// Append places rec after every sibling: max(position)+1, or 0 for the
// first record. A persisted record (non-zero ID) is updated in storage.
func (u *Updater) Append(ctx context.Context, rec *model.Record) error {
	max, ok, err := u.store.MaxPosition(ctx, rec.SectionID)
	if err != nil {
		return err
	}

	rec.Position = 0
	if ok {
		rec.Position = max + 1
	}
	if rec.ID == 0 {
		return nil
	}
	return u.store.UpdatePosition(ctx, rec.ID, rec.Position)
}

// Move relocates rec from index from to index to among its siblings, which
// are ordered by position. The record takes the position previously held at
// index to and only the siblings in between shift by one slot.
//
// Positions are kept dense: if siblings carry duplicate or descending
// positions they are renumbered 0..n-1 first.
func (u *Updater) Move(ctx context.Context, rec *model.Record, from, to int) error {
	siblings, err := u.store.SiblingRecords(ctx, rec.SectionID)
	if err != nil {
		return err
	}
	siblings = byPosition(siblings)

	n := len(siblings)
	if from < 0 || from >= n {
		return outOfRange("from", from)
	}
	if to < 0 || to >= n {
		return outOfRange("to", to)
	}
	if siblings[from].ID != rec.ID {
		// The client's view is stale; trust the stored order.
		idx := indexOf(siblings, rec.ID)
		if idx < 0 {
			return model.NewNotFound("record", strconv.FormatInt(rec.ID, 10))
		}
		u.logger.Debug("reorder index mismatch", "record", rec.ID, "from", from, "actual", idx)
		from = idx
	}

	slots := make([]int, n)
	dense := true
	for i, s := range siblings {
		slots[i] = s.Position
		if i > 0 && slots[i] <= slots[i-1] {
			dense = false
		}
	}
	if !dense {
		for i := range slots {
			slots[i] = i
		}
	}

	moved := siblings[from]
	order := append(append([]*model.Record{}, siblings[:from]...), siblings[from+1:]...)
	order = append(order[:to], append([]*model.Record{moved}, order[to:]...)...)

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range order {
		if r.Position == slots[i] {
			continue
		}
		pos := slots[i]
		g.Go(func() error {
			return u.store.UpdatePosition(gctx, r.ID, pos)
		})
		r.Position = pos
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reorder records: %w", err)
	}

	rec.Position = moved.Position
	return nil
}

// byPosition returns siblings sorted by position, stable on storage order.
func byPosition(recs []*model.Record) []*model.Record {
	out := append([]*model.Record{}, recs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func indexOf(recs []*model.Record, id int64) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func outOfRange(field string, v int) error {
	return &model.ValidationError{Fields: map[string]string{
		field: fmt.Sprintf("index %d out of range", v),
	}}
}
