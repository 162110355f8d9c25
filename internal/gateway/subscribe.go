// subscribe.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package gateway

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/localnerve/internportal/internal/logger"
)

// Listener receives the full matching result set of a subscription.
type Listener func(docs []Doc)

type subscription struct {
	collection string
	conds      []Condition
	fn         Listener
	wake       chan struct{}
	stop       chan struct{}
	done       chan struct{}
	calling    atomic.Bool
}

type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*subscription]struct{})}
}

func (h *hub) add(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.collection]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[s.collection] = set
	}
	set[s] = struct{}{}
}

func (h *hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[s.collection], s)
	if len(h.subs[s.collection]) == 0 {
		delete(h.subs, s.collection)
	}
}

// publish wakes every subscription of the collection. Wakes coalesce, so a
// slow listener sees the latest state rather than every intermediate one.
func (h *hub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[collection] {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscribe delivers the documents matching conds, in creation order, once
// immediately and again after every write to the collection made through
// this Gateway. Listeners run on a dedicated goroutine, one call at a time.
// The returned func stops delivery. Called between deliveries it waits for
// the listener goroutine to exit. Called while a delivery is running, which
// includes from inside the listener, it returns at once and the running call
// is the last one.
func (g *Gateway) Subscribe(collection string, conds []Condition, fn Listener) (unsubscribe func()) {
	s := &subscription{
		collection: collection,
		conds:      conds,
		fn:         fn,
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.wake <- struct{}{}
	g.hub.add(s)
	go g.listen(s)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.hub.remove(s)
			close(s.stop)
			if !s.calling.Load() {
				<-s.done
			}
		})
	}
}

func (g *Gateway) listen(s *subscription) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}

		docs, err := g.Query(context.Background(), s.collection, s.conds, "")
		if err != nil {
			logger.Warn("subscription query failed", "collection", s.collection, "err", err)
			continue
		}

		select {
		case <-s.stop:
			return
		default:
			s.calling.Store(true)
			s.fn(docs)
			s.calling.Store(false)
		}
	}
}
