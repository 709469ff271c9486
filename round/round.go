// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package round owns one round's RoundUpdate, registry and handlers, and
// drives the iteration executor (spec §4.6, component C6). Each
// iteration's committees are drawn when that iteration starts; they are
// not cached or kept afterwards. Grounded on the task-per-round-service shape described throughout
// the pack (one long-lived task per service, sub-tasks spawned beneath
// it) and on the RoundUpdate/registry wiring visible in
// original_source/consensus/src/ratification/handler.rs. Uses
// golang.org/x/sync/errgroup for cooperative sub-task cancellation, the
// idiomatic Go analogue of the Rust code's tokio::JoinSet.
package round

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	luxlog "github.com/luxfi/log"

	"github.com/duskcore/consensus/aggregator"
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/consensuserr"
	"github.com/duskcore/consensus/iteration"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/metrics"
	"github.com/duskcore/consensus/operations"
	"github.com/duskcore/consensus/registry"
	"github.com/duskcore/consensus/router"
	"github.com/duskcore/consensus/step/proposal"
	"github.com/duskcore/consensus/step/ratification"
	"github.com/duskcore/consensus/step/validation"
	"github.com/duskcore/consensus/user/provisioners"
)

// Result is what a round produces: a decided block's Quorum, or an error
// (ErrCancelled, ErrNoQuorum).
type Result struct {
	Quorum message.Quorum
	Err    error
}

// Controller owns one round end to end.
type Controller struct {
	ru       commons.RoundUpdate
	cfg      config.Config
	backend  bls.Backend
	executor operations.Executor
	builder  proposal.CandidateBuilder
	metrics  *metrics.Metrics
	log      luxlog.Logger
	provs    *provisioners.Provisioners

	reg    *registry.Registry
	result chan Result
}

// New builds a round Controller.
func New(
	ru commons.RoundUpdate,
	cfg config.Config,
	backend bls.Backend,
	executor operations.Executor,
	builder proposal.CandidateBuilder,
	met *metrics.Metrics,
	log luxlog.Logger,
	provs *provisioners.Provisioners,
) *Controller {
	return &Controller{
		ru: ru, cfg: cfg, backend: backend, executor: executor, builder: builder,
		metrics: met, log: log, provs: provs,
		reg:    registry.New(),
		result: make(chan Result, 1),
	}
}

// ResultChan is the single asynchronous slot carrying this round's
// decision (spec §6, "Produced — Result channel").
func (c *Controller) ResultChan() <-chan Result { return c.result }

// MemInbox is a trivial in-memory message feed: a buffered channel that
// respects ctx cancellation on Recv, used both by tests and as the
// default wiring until a real network-backed router is attached.
type MemInbox struct {
	ch chan message.Message
}

// NewMemInbox builds a bounded in-memory Inbox.
func NewMemInbox(capacity int) *MemInbox {
	return &MemInbox{ch: make(chan message.Message, capacity)}
}

func (m *MemInbox) Recv(ctx context.Context) (message.Message, bool) {
	select {
	case msg, ok := <-m.ch:
		return msg, ok
	case <-ctx.Done():
		return message.Message{}, false
	}
}

// Push feeds msg into the inbox, dropping it if the inbox is full. The
// drop applies to every message whatever its round or iteration,
// current-iteration messages included: the inbox does not track the
// current iteration and never blocks the producer. Bounded queuing of
// future-round/future-iteration messages is done by the router, not by
// this minimal feed.
func (m *MemInbox) Push(msg message.Message) {
	select {
	case m.ch <- msg:
	default:
	}
}

// netOutbox adapts operations.Network to iteration.Outbox.
type netOutbox struct {
	net operations.Network
}

func (o netOutbox) Send(ctx context.Context, msg message.Message) {
	_ = o.net.Broadcast(ctx, msg)
}

// Run drives the round to completion: it iterates 0..MAX_ITER and writes
// exactly one Result to ResultChan. Cancelling ctx ends the running step's
// wait and stops the loop before the next iteration; the step handlers
// have no teardown of their own, so no Ratification→Validation→Proposal
// teardown order is applied.
func (c *Controller) Run(ctx context.Context, net operations.Network, inbox *MemInbox) {
	g, gctx := errgroup.WithContext(ctx)

	agg := aggregator.New(c.backend, c.cfg)
	propH := proposal.New(c.backend, c.builder, c.log)
	valH := validation.New(c.backend, c.executor, agg, c.cfg, c.log)
	ratH := ratification.New(c.backend, agg, c.reg)
	exec := iteration.New(c.cfg, c.backend, c.metrics, c.log)
	outbox := netOutbox{net: net}

	g.Go(func() error {
		for it := uint8(0); it < c.cfg.MaxIter; it++ {
			if c.cfg.IsEmergencyIter(it) {
				c.metrics.EmergencyIterations.Inc()
			}

			comms := iteration.DrawCommittees(c.provs, c.ru.Seed, c.ru.Round, it, c.cfg)

			out, err := exec.RunIteration(gctx, c.ru, it, comms, propH, valH, ratH, inbox, outbox)
			if err != nil {
				return err
			}
			if out.Decided {
				c.result <- Result{Quorum: out.Quorum}
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
		}
		c.result <- Result{Err: consensuserr.ErrNoQuorum}
		return consensuserr.ErrNoQuorum
	})

	go func() {
		if err := g.Wait(); err != nil && err != consensuserr.ErrNoQuorum {
			select {
			case c.result <- Result{Err: consensuserr.Wrap(consensuserr.KindCancelled, fmt.Errorf("%w: %w", consensuserr.ErrCancelled, err))}:
			default:
			}
		}
	}()
}

// NewRoutedInbox wires a router.Router in front of inbox: every message
// the router classifies DispatchCurrent or DispatchPast is handed to
// inbox.Push (the router only decides reachability, not step targeting).
// The iteration executor hands each delivered message to the current
// step's Verify/Collect only and never calls CollectFromPast, so a
// past-iteration message that reaches inbox is dropped there.
// Buffered/Discarded messages never reach inbox at all.
// Use this instead of net.Attach(inbox.Push) directly when the network
// layer delivers raw, unclassified Consensus-topic traffic (spec §4.7).
func NewRoutedInbox(round uint64, queueCapacity int, inbox *MemInbox, log luxlog.Logger) (*router.Router, func(message.Message)) {
	r := router.New(round, queueCapacity, func(ctx context.Context, msg message.Message, past bool) {
		inbox.Push(msg)
	}, log)
	return r, func(msg message.Message) { r.Route(context.Background(), msg) }
}

// FailedGenerators extracts, for iterations below decidedIteration, the
// generator penalized by each failed attestation — feeding C8 (spec
// §4.8).
func (c *Controller) FailedGenerators(decidedIteration uint8) []*registry.FailedIteration {
	return c.reg.FailedAttestations(decidedIteration)
}
