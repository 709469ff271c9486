// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package iteration drives one round's Proposal→Validation→Ratification
// cycle across iterations 0..MAX_ITER (spec §4.5, component C5). Grounded
// on the overall task-spawning shape of ValidationStep::spawn_try_vote in
// original_source/consensus/src/validation/step.rs (a JoinSet of
// cooperative sub-tasks per step), rendered with golang.org/x/sync/
// errgroup as the idiomatic Go analogue of Rust's tokio::JoinSet.
package iteration

import (
	"context"
	"time"

	"github.com/duskcore/consensus/aggregator"
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/metrics"
	"github.com/duskcore/consensus/registry"
	"github.com/duskcore/consensus/step"
	"github.com/duskcore/consensus/step/proposal"
	"github.com/duskcore/consensus/step/ratification"
	"github.com/duskcore/consensus/step/validation"
	"github.com/duskcore/consensus/user/committee"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/sortition"

	luxlog "github.com/luxfi/log"
)

// Inbox is the per-iteration inbound message feed a step consumes — a
// seam the round controller/router fills.
type Inbox interface {
	Recv(ctx context.Context) (message.Message, bool)
}

// Outbox broadcasts this node's own step outputs.
type Outbox interface {
	Send(ctx context.Context, msg message.Message)
}

// Committees bundles one iteration's three drawn committees.
type Committees struct {
	Proposal     *committee.Committee
	Validation   *committee.Committee
	Ratification *committee.Committee
	Generator    message.PublicKey
}

// DrawCommittees runs sortition for all three steps of iteration,
// excluding the generator just drawn for this same iteration from the
// Validation and Ratification draws per spec §4.1 ("Subsequent step
// sortitions take the generator as exclusion_list").
func DrawCommittees(p *provisioners.Provisioners, seed sortition.Seed, round uint64, iteration uint8, cfg config.Config) Committees {
	propCfg := sortition.Config{
		Seed: seed, Round: round, Iteration: iteration, Step: message.StepProposal,
		Credits: cfg.CommitteeCreditsProposal, MinStake: cfg.MinStake, DuskUnit: cfg.DuskUnit,
	}
	propComm := committee.New(p, propCfg)
	generator, _ := propComm.Generator()

	exclusion := []message.PublicKey{generator}
	valCfg := sortition.Config{
		Seed: seed, Round: round, Iteration: iteration, Step: message.StepValidation,
		Credits: cfg.CommitteeCreditsValidation, MinStake: cfg.MinStake, DuskUnit: cfg.DuskUnit, Exclusion: exclusion,
	}
	ratCfg := valCfg
	ratCfg.Step = message.StepRatification
	ratCfg.Credits = cfg.CommitteeCreditsRatification

	return Committees{
		Proposal:     propComm,
		Validation:   committee.New(p, valCfg),
		Ratification: committee.New(p, ratCfg),
		Generator:    generator,
	}
}

// Outcome is what one iteration produced.
type Outcome struct {
	Decided bool
	Quorum  message.Quorum
}

// Executor runs iterations for one round. The concrete step handlers
// (which own the VM-executor and network bindings) are constructed by
// the round controller and passed into RunIteration; Executor itself
// only owns the cross-iteration concerns: timing, metrics, logging.
type Executor struct {
	cfg     config.Config
	backend bls.Backend
	metrics *metrics.Metrics
	log     luxlog.Logger
}

// New builds an Executor.
func New(cfg config.Config, backend bls.Backend, met *metrics.Metrics, log luxlog.Logger) *Executor {
	return &Executor{cfg: cfg, backend: backend, metrics: met, log: log}
}

// RunIteration executes one full Proposal→Validation→Ratification cycle.
// inbox/outbox are the iteration's message feed and broadcast sink.
func (e *Executor) RunIteration(
	ctx context.Context,
	ru commons.RoundUpdate,
	iteration uint8,
	comms Committees,
	prop *proposal.Handler,
	val *validation.Handler,
	rat *ratification.Handler,
	inbox Inbox,
	outbox Outbox,
) (Outcome, error) {
	e.metrics.IterationsStarted.Inc()

	propDeadline := e.cfg.StepDeadline(e.cfg.TProp, iteration)
	valDeadline := e.cfg.StepDeadline(e.cfg.TVal, iteration)
	ratDeadline := e.cfg.StepDeadline(e.cfg.TRat, iteration)

	prop.Reset(iteration)
	if gen, ok := comms.Proposal.Generator(); ok && gen == ru.PubKey {
		candidate, err := prop.BuildAndSign(ctx, ru, iteration, ru.SecretKey)
		if err == nil {
			msg := message.FromCandidate(candidate)
			outbox.Send(ctx, msg)
			prop.Collect(ctx, msg, ru, comms.Proposal)
		}
	}
	e.runStepLoop(ctx, propDeadline, inbox, func(msg message.Message) (bool, error) {
		if err := prop.Verify(ctx, msg, ru, iteration, comms.Proposal); err != nil {
			return false, nil
		}
		out, err := prop.Collect(ctx, msg, ru, comms.Proposal)
		return out.Ready, err
	})

	candidate, _ := prop.Candidate()
	val.Reset(iteration, candidate)

	if comms.Validation.IsMember(ru.PubKey) {
		if v, cast := val.TryVote(ctx, ru, iteration, comms.Generator); cast {
			msg := message.FromValidation(v)
			outbox.Send(ctx, msg)
			val.Collect(ctx, msg, ru, comms.Validation)
		}
	}

	var valOutcome step.Outcome
	e.runStepLoop(ctx, valDeadline, inbox, func(msg message.Message) (bool, error) {
		if err := val.Verify(ctx, msg, ru, iteration, comms.Validation); err != nil {
			return false, nil
		}
		out, err := val.Collect(ctx, msg, ru, comms.Validation)
		if out.Ready {
			valOutcome = out
		}
		return out.Ready, err
	})
	if !valOutcome.Ready {
		e.metrics.StepTimeouts.WithLabelValues("validation").Inc()
		valOutcome = val.HandleTimeout()
	}
	validationResult := validation.Result(valOutcome)

	rat.Reset(iteration, validationResult, comms.Generator)
	if comms.Ratification.IsMember(ru.PubKey) {
		r := rat.CastVote(ru, iteration)
		msg := message.FromRatification(r)
		outbox.Send(ctx, msg)
		rat.Collect(ctx, msg, ru, comms.Ratification)
	}

	var ratOutcome message.Message
	decided := false
	e.runStepLoop(ctx, ratDeadline, inbox, func(msg message.Message) (bool, error) {
		if err := rat.Verify(ctx, msg, ru, iteration, comms.Validation); err != nil {
			return false, nil
		}
		out, err := rat.Collect(ctx, msg, ru, comms.Ratification)
		if out.Ready {
			ratOutcome = out.Message
			decided = true
		}
		return out.Ready, err
	})
	if !decided {
		e.metrics.StepTimeouts.WithLabelValues("ratification").Inc()
		rat.HandleTimeout()
		e.metrics.IterationsFailed.WithLabelValues("timeout").Inc()
		return Outcome{}, nil
	}

	if ratOutcome.Type == message.MsgQuorum && ratOutcome.Quorum.Vote.Kind == message.VoteValid {
		e.metrics.RoundsDecided.Inc()
		return Outcome{Decided: true, Quorum: *ratOutcome.Quorum}, nil
	}
	e.metrics.IterationsFailed.WithLabelValues("no_quorum_vote").Inc()
	return Outcome{}, nil
}

// runStepLoop pulls messages from inbox until handle reports readiness or
// deadline elapses; it never spins (spec §5: "the executor never spins").
func (e *Executor) runStepLoop(ctx context.Context, deadline time.Duration, inbox Inbox, handle func(message.Message) (bool, error)) {
	stepCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	for {
		msg, ok := inbox.Recv(stepCtx)
		if !ok {
			return
		}
		ready, err := handle(msg)
		if err != nil {
			continue
		}
		if ready {
			return
		}
	}
}
