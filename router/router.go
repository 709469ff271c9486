// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package router classifies inbound consensus messages by (round,
// iteration, step_kind) and dispatches or buffers them (spec §4.7,
// component C7). Grounded on the dispatch/queueing shape of
// networking/router/chain_router.go in the teacher repo — a topic
// router with bounded per-key queues and a fast-reject filter stage
// ahead of queuing — generalized from chain topics to consensus
// (round, iteration) keys.
package router

import (
	"context"
	"sync"

	luxlog "github.com/luxfi/log"

	"github.com/duskcore/consensus/message"
)

// Filter is a topic-specific fast-reject check applied before a message
// is queued at all (spec §4.7: "a topic-specific fast filter may reject
// malformed messages").
type Filter func(msg message.Message) bool

// Disposition is where a classified message should go.
type Disposition int

const (
	// DispatchCurrent: current round, current iteration — hand straight
	// to the matching step handler.
	DispatchCurrent Disposition = iota
	// DispatchPast: current round, past iteration — collect_from_past.
	DispatchPast
	// Buffered: future round, or future iteration of the current round —
	// queued.
	Buffered
	// Discarded: past round, or rejected by a Filter.
	Discarded
)

// Classify implements spec §4.7's classification table.
func Classify(msg message.Message, currentRound uint64, currentIteration uint8) Disposition {
	switch {
	case msg.Round > currentRound:
		return Buffered
	case msg.Round < currentRound:
		return Discarded
	case msg.Iteration == currentIteration:
		return DispatchCurrent
	case msg.Iteration < currentIteration:
		return DispatchPast
	default:
		// current round, future iteration: spec has no explicit slot for
		// this cell of the table: not yet actionable, so it is buffered
		// alongside future-round messages until the round controller
		// advances into that iteration.
		return Buffered
	}
}

// futureQueue is a bounded, drop-oldest-first ring of buffered messages
// for one future round (spec §5: "overflow drops the oldest future-round
// messages first").
type futureQueue struct {
	buf []message.Message
	cap int
}

func newFutureQueue(capacity int) *futureQueue {
	return &futureQueue{cap: capacity}
}

func (q *futureQueue) push(msg message.Message) {
	if len(q.buf) >= q.cap {
		q.buf = q.buf[1:]
	}
	q.buf = append(q.buf, msg)
}

func (q *futureQueue) drain() []message.Message {
	out := q.buf
	q.buf = nil
	return out
}

// Router owns per-round future-message queues and the current-round
// dispatch target. AdvanceRound moves one Router on from round to round.
// round.NewRoutedInbox builds one in front of a MemInbox; round.Controller
// Run does not create one itself.
type Router struct {
	mu sync.Mutex

	currentRound     uint64
	currentIteration uint8
	queueCapacity    int
	futureByRound    map[uint64]*futureQueue

	filters map[message.MsgType]Filter

	dispatch func(ctx context.Context, msg message.Message, past bool)

	log luxlog.Logger
}

// New builds a Router for round, starting at iteration 0. dispatch is
// invoked for every message classified DispatchCurrent (past=false) or
// DispatchPast (past=true); queueCapacity bounds every future-round
// queue.
func New(round uint64, queueCapacity int, dispatch func(ctx context.Context, msg message.Message, past bool), log luxlog.Logger) *Router {
	return &Router{
		currentRound:  round,
		queueCapacity: queueCapacity,
		futureByRound: make(map[uint64]*futureQueue),
		filters:       make(map[message.MsgType]Filter),
		dispatch:      dispatch,
		log:           log,
	}
}

// SetFilter installs a fast-reject filter for msgType, applied before any
// queuing or dispatch decision.
func (r *Router) SetFilter(msgType message.MsgType, f Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[msgType] = f
}

// AdvanceIteration tells the router the round controller has moved to a
// new current iteration. Messages for the now-past iteration subsequently
// route to collect_from_past; any current-round messages buffered for
// exactly the new iteration (queued earlier as "future iteration, current
// round") are drained and dispatched now.
func (r *Router) AdvanceIteration(ctx context.Context, iteration uint8) {
	r.mu.Lock()
	r.currentIteration = iteration
	q, ok := r.futureByRound[r.currentRound]
	var ready []message.Message
	if ok {
		var remaining []message.Message
		for _, msg := range q.buf {
			if msg.Iteration == iteration {
				ready = append(ready, msg)
			} else {
				remaining = append(remaining, msg)
			}
		}
		q.buf = remaining
	}
	r.mu.Unlock()

	for _, msg := range ready {
		r.dispatch(ctx, msg, false)
	}
}

// AdvanceRound tells the router the round controller has moved on to a
// new round: any queue buffered for that round is drained and dispatched
// (as current), and the router's own identity moves forward with it.
func (r *Router) AdvanceRound(ctx context.Context, round uint64) {
	r.mu.Lock()
	q, ok := r.futureByRound[round]
	delete(r.futureByRound, round)
	r.currentRound = round
	r.currentIteration = 0
	r.mu.Unlock()

	if !ok {
		return
	}
	for _, msg := range q.drain() {
		r.dispatch(ctx, msg, false)
	}
}

// Route classifies and handles one inbound message: dispatch immediately,
// buffer for a future round, or discard.
func (r *Router) Route(ctx context.Context, msg message.Message) Disposition {
	r.mu.Lock()
	if f, ok := r.filters[msg.Type]; ok && !f(msg) {
		r.mu.Unlock()
		return Discarded
	}
	disp := Classify(msg, r.currentRound, r.currentIteration)
	if disp == Buffered {
		q, ok := r.futureByRound[msg.Round]
		if !ok {
			q = newFutureQueue(r.queueCapacity)
			r.futureByRound[msg.Round] = q
		}
		q.push(msg)
	}
	r.mu.Unlock()

	switch disp {
	case DispatchCurrent:
		r.dispatch(ctx, msg, false)
	case DispatchPast:
		r.dispatch(ctx, msg, true)
	}
	return disp
}
