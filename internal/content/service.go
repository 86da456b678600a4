package content

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/ordering"
	"github.com/roach88/stencil/internal/querysql"
)

// Store is the storage the content service reads and writes.
type Store interface {
	ordering.Store

	FindSectionByName(ctx context.Context, name string) (*model.Section, error)
	FindRecord(ctx context.Context, id int64) (*model.Record, error)
	ListRecords(ctx context.Context, q querysql.RecordQuery) ([]*model.Record, error)
	CreateRecord(ctx context.Context, rec *model.Record) error
	UpdateRecord(ctx context.Context, rec *model.Record) error
	DestroyRecord(ctx context.Context, id int64) error
	FirstUser(ctx context.Context) (*model.User, error)
}

// EventKind names a record write.
type EventKind string

const (
	EventCreated   EventKind = "created"
	EventUpdated   EventKind = "updated"
	EventDestroyed EventKind = "destroyed"
	EventReordered EventKind = "reordered"
)

// Event is delivered to subscribers after a successful write.
type Event struct {
	Kind     EventKind
	RecordID int64
	Section  string
}

// Service reads and writes site content.
type Service struct {
	store      Store
	directives *directive.Registry
	positions  *ordering.Updater
	logger     *slog.Logger

	mu          sync.RWMutex
	subscribers []func(Event)
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry sets the directive registry. Tests pass one with an offline
// unfurler.
func WithRegistry(r *directive.Registry) Option {
	return func(s *Service) {
		s.directives = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.directives == nil {
		s.directives = directive.NewRegistry(directive.WithLogger(s.logger))
	}
	s.positions = ordering.New(store, ordering.WithLogger(s.logger))
	return s
}

// Directives returns the registry used to render fields.
func (s *Service) Directives() *directive.Registry {
	return s.directives
}

// Subscribe registers fn to run after every successful write.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Service) publish(e Event) {
	s.mu.RLock()
	subs := append([]func(Event){}, s.subscribers...)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// CreateRecord serializes, validates and stores a new record. Records of
// sortable sections are appended after their siblings.
func (s *Service) CreateRecord(ctx context.Context, sectionName string, content map[string]any) (*model.Record, error) {
	sec, err := s.store.FindSectionByName(ctx, sectionName)
	if err != nil {
		return nil, err
	}

	serialized, err := s.SerializeContent(sec, content)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(sec, serialized); err != nil {
		return nil, err
	}

	rec := &model.Record{SectionID: sec.ID, Content: serialized, Section: sec}
	if sec.Sortable {
		if err := s.positions.Append(ctx, rec); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug("record created", "section", sec.Name, "id", rec.ID)
	s.publish(Event{Kind: EventCreated, RecordID: rec.ID, Section: sec.Name})
	return rec, nil
}

// UpdateRecord replaces the content of an existing record.
func (s *Service) UpdateRecord(ctx context.Context, id int64, content map[string]any) (*model.Record, error) {
	rec, err := s.store.FindRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	serialized, err := s.SerializeContent(rec.Section, content)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(rec.Section, serialized); err != nil {
		return nil, err
	}

	rec.Content = serialized
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug("record updated", "section", rec.Section.Name, "id", rec.ID)
	s.publish(Event{Kind: EventUpdated, RecordID: rec.ID, Section: rec.Section.Name})
	return rec, nil
}

// DestroyRecord deletes a record.
func (s *Service) DestroyRecord(ctx context.Context, id int64) error {
	rec, err := s.store.FindRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DestroyRecord(ctx, id); err != nil {
		return err
	}

	s.logger.Debug("record destroyed", "section", rec.Section.Name, "id", id)
	s.publish(Event{Kind: EventDestroyed, RecordID: id, Section: rec.Section.Name})
	return nil
}

// ReorderRecord moves a record between sibling indexes. Nil from and to
// append it instead.
func (s *Service) ReorderRecord(ctx context.Context, id int64, from, to *int) (*model.Record, error) {
	rec, err := s.store.FindRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.positions.Perform(ctx, ordering.Request{Record: rec, From: from, To: to}); err != nil {
		return nil, err
	}

	s.logger.Debug("record reordered", "section", rec.Section.Name, "id", id, "position", rec.Position)
	s.publish(Event{Kind: EventReordered, RecordID: id, Section: rec.Section.Name})
	return rec, nil
}
