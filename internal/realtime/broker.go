package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// subscriptionBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events and must reload.
const subscriptionBuffer = 64

// Filter selects which events a subscription receives. Zero-value fields are
// wildcards: an empty Filter matches every event on the table.
type Filter struct {
	// PodID matches events whose row belongs to this pod.
	PodID string
	// OwnerID matches events whose row has this owner and no pod (personal notes).
	OwnerID string
}

func (f Filter) matches(e *ChangeEvent) bool {
	if f.PodID == "" && f.OwnerID == "" {
		return true
	}
	s := e.scope()
	if f.PodID != "" {
		return s.PodID == f.PodID
	}
	return s.PodID == "" && s.OwnerID == f.OwnerID
}

// Subscription is one active change feed. Receive from C until it is closed;
// call Cancel exactly once when the scope is deactivated. Cancelling before
// switching scope prevents cross-scope event leakage.
type Subscription struct {
	C      <-chan ChangeEvent
	cancel func()
}

// Cancel tears the subscription down and closes C. Safe to call once.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Broker fans change events out to per-table, filtered subscribers. Writes go
// through Publish after the repository commit; delivery to each subscriber is
// in publish order.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*subscriber
	log    *logrus.Entry
}

type subscriber struct {
	filter Filter
	ch     chan ChangeEvent
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[int]*subscriber),
		log:  logrus.WithField("component", "realtime"),
	}
}

// Subscribe registers a filtered subscription on the given table.
func (b *Broker) Subscribe(table string, filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[table] == nil {
		b.subs[table] = make(map[int]*subscriber)
	}
	id := b.nextID
	b.nextID++
	sub := &subscriber{filter: filter, ch: make(chan ChangeEvent, subscriptionBuffer)}
	b.subs[table][id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[table][id]; ok {
				delete(b.subs[table], id)
				close(s.ch)
			}
		})
	}
	return &Subscription{C: sub.ch, cancel: cancel}
}

// Publish marshals the rows and delivers the event to every matching
// subscriber on the table. A subscriber with a full channel loses the event;
// that is logged, since the subscriber's cache is now behind until it reloads.
func (b *Broker) Publish(table string, op Op, oldRow, newRow any) {
	evt := ChangeEvent{Op: op, Table: table}
	var err error
	if evt.Old, err = marshalRow(oldRow); err != nil {
		b.log.WithError(err).WithField("table", table).Warn("dropping event: bad old row")
		return
	}
	if evt.New, err = marshalRow(newRow); err != nil {
		b.log.WithError(err).WithField("table", table).Warn("dropping event: bad new row")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[table] {
		if !sub.filter.matches(&evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.log.WithField("table", table).Warn("subscriber lagging, event dropped")
		}
	}
}

func marshalRow(row any) (json.RawMessage, error) {
	if row == nil {
		return nil, nil
	}
	return json.Marshal(row)
}

// LocalFeed adapts Broker to the feed contract shared with Client, whose
// Subscribe can fail on dial. In-process subscription never fails.
type LocalFeed struct {
	Broker *Broker
}

// Subscribe registers a filtered subscription on the broker.
func (f LocalFeed) Subscribe(table string, filter Filter) (*Subscription, error) {
	return f.Broker.Subscribe(table, filter), nil
}
