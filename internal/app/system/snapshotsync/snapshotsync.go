// Package snapshotsync keeps the title snapshots stored inside users'
// favorites and recently viewed lists in step with the notes and
// flashcard sets they point at.
//
// Stores call the On* triggers after their own write commits. Triggers
// enqueue an Event and return immediately; a single worker applies events
// in order with one UpdateMany each. Failures are logged and dropped, and
// a full queue drops new events with a warning. Either way the snapshots
// drift until the item changes again or `busybeectl resync-snapshots` runs.
package snapshotsync

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dalemusser/busybee/internal/app/system/timeouts"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultQueueSize is used when New is given a non-positive size.
const DefaultQueueSize = 1024

// Op is the kind of change an Event carries.
type Op string

const (
	OpTitleChanged Op = "title_changed"
	OpItemDeleted  Op = "item_deleted"
)

// Event is one pending fan-out.
type Event struct {
	ID     string
	Op     Op
	ItemID primitive.ObjectID
	Title  string
}

// Snapshots is the write side of the fan-out, implemented by the user store.
type Snapshots interface {
	SetTitleSnapshot(ctx context.Context, itemID primitive.ObjectID, title string) (int64, error)
	RemoveItemReferences(ctx context.Context, itemID primitive.ObjectID) (int64, error)
}

// Service owns the event queue and its worker.
type Service struct {
	snaps Snapshots
	log   *zap.Logger

	queue   chan Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
	dropped atomic.Int64
}

// New creates a Service. Events published before Start wait in the queue.
func New(snaps Snapshots, logger *zap.Logger, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Service{
		snaps:  snaps,
		log:    logger,
		queue:  make(chan Event, queueSize),
		stopCh: make(chan struct{}),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Triggers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// OnNoteTitleSaved implements notestore.Hooks.
func (s *Service) OnNoteTitleSaved(noteID primitive.ObjectID, title string) {
	s.publish(Event{Op: OpTitleChanged, ItemID: noteID, Title: title})
}

// OnNoteDeleted implements notestore.Hooks.
func (s *Service) OnNoteDeleted(noteID primitive.ObjectID) {
	s.publish(Event{Op: OpItemDeleted, ItemID: noteID})
}

// OnFlashcardSetNameSaved implements setstore.Hooks.
func (s *Service) OnFlashcardSetNameSaved(setID primitive.ObjectID, setName string) {
	s.publish(Event{Op: OpTitleChanged, ItemID: setID, Title: setName})
}

// OnFlashcardSetDeleted implements setstore.Hooks.
func (s *Service) OnFlashcardSetDeleted(setID primitive.ObjectID) {
	s.publish(Event{Op: OpItemDeleted, ItemID: setID})
}

func (s *Service) publish(ev Event) {
	ev.ID = uuid.NewString()
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.log.Warn("snapshot sync queue full; event dropped",
			zap.String("event_id", ev.ID),
			zap.String("op", string(ev.Op)),
			zap.String("item_id", ev.ItemID.Hex()))
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Fan-out                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// OnTitleChanged rewrites every snapshot of itemID to newTitle. Errors are
// logged and swallowed.
func (s *Service) OnTitleChanged(ctx context.Context, itemID primitive.ObjectID, newTitle string) {
	s.apply(ctx, Event{ID: uuid.NewString(), Op: OpTitleChanged, ItemID: itemID, Title: newTitle})
}

// OnItemDeleted removes every favorite and recently viewed entry that
// references itemID. Errors are logged and swallowed.
func (s *Service) OnItemDeleted(ctx context.Context, itemID primitive.ObjectID) {
	s.apply(ctx, Event{ID: uuid.NewString(), Op: OpItemDeleted, ItemID: itemID})
}

func (s *Service) apply(ctx context.Context, ev Event) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "snapshotsync."+string(ev.Op))
	defer cancel()

	var (
		n   int64
		err error
	)
	switch ev.Op {
	case OpTitleChanged:
		n, err = s.snaps.SetTitleSnapshot(ctx, ev.ItemID, ev.Title)
	case OpItemDeleted:
		n, err = s.snaps.RemoveItemReferences(ctx, ev.ItemID)
	default:
		s.log.Error("snapshot sync: unknown op", zap.String("op", string(ev.Op)))
		return
	}

	if err != nil {
		s.log.Error("snapshot sync failed",
			zap.String("event_id", ev.ID),
			zap.String("op", string(ev.Op)),
			zap.String("item_id", ev.ItemID.Hex()),
			zap.Error(err))
		return
	}
	s.log.Debug("snapshot sync applied",
		zap.String("event_id", ev.ID),
		zap.String("op", string(ev.Op)),
		zap.String("item_id", ev.ItemID.Hex()),
		zap.Int64("users_modified", n))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Worker lifecycle                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// Start begins the background worker.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info("snapshot sync worker started", zap.Int("queue_size", cap(s.queue)))
}

// Stop applies whatever is already queued, then stops the worker and waits
// for it. Events published after Stop stay queued and are never applied.
func (s *Service) Stop() {
	s.stop.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.log.Info("snapshot sync worker stopped", zap.Int64("dropped", s.dropped.Load()))
	})
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.queue:
			s.apply(context.Background(), ev)
		case <-s.stopCh:
			s.drain()
			return
		}
	}
}

func (s *Service) drain() {
	for {
		select {
		case ev := <-s.queue:
			s.apply(context.Background(), ev)
		default:
			return
		}
	}
}
