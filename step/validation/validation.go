// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package validation implements the Validation step (spec §4.3.2),
// grounded on ValidationStep::try_vote/call_vst/cast_vote in
// original_source/consensus/src/validation/step.rs: no-candidate voting,
// candidate-header verification ahead of verify_faults and
// verify_state_transition, the must_vote()/abstain split on operation
// errors, and emergency-iteration NoCandidate suppression.
package validation

import (
	"context"

	"github.com/duskcore/consensus/aggregator"
	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/consensuserr"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/operations"
	"github.com/duskcore/consensus/step"
	"github.com/duskcore/consensus/user/committee"

	luxlog "github.com/luxfi/log"
)

// Handler is the Validation step_handler.
type Handler struct {
	backend  bls.Backend
	executor operations.Executor
	agg      *aggregator.Aggregator
	cfg      config.Config
	log      luxlog.Logger

	iteration uint8
	candidate *message.Candidate
}

// New builds a Validation handler.
func New(backend bls.Backend, executor operations.Executor, agg *aggregator.Aggregator, cfg config.Config, log luxlog.Logger) *Handler {
	return &Handler{backend: backend, executor: executor, agg: agg, cfg: cfg, log: log}
}

// Reset reinitializes the handler for iteration, seeding it with
// candidate (possibly nil if Proposal timed out).
func (h *Handler) Reset(iteration uint8, candidate *message.Candidate) {
	h.iteration = iteration
	h.candidate = candidate
}

func (h *Handler) Name() string { return "validation" }

// TryVote runs the voting policy of spec §4.3.2 and returns the signed
// Validation message this node should cast, or (zero, false) if it must
// abstain.
func (h *Handler) TryVote(ctx context.Context, ru commons.RoundUpdate, iteration uint8, expectedGenerator message.PublicKey) (message.Validation, bool) {
	vote, cast := h.decideVote(ctx, ru, iteration, expectedGenerator)
	if !cast {
		return message.Validation{}, false
	}

	// Casting NoCandidate is disabled in emergency iterations (spec
	// §4.3.2: "In emergency iterations ... casting NoCandidate is
	// disabled — the step may only vote Valid").
	if vote.Kind == message.VoteNoCandidate && h.cfg.IsEmergencyIter(iteration) {
		return message.Validation{}, false
	}

	header := ru.Header(iteration)
	v := message.Validation{Header: header, Vote: vote}
	v.Header.Signature = h.backend.Sign(ru.SecretKey, encodeValidationBody(header, vote))
	return v, true
}

func (h *Handler) decideVote(ctx context.Context, ru commons.RoundUpdate, iteration uint8, expectedGenerator message.PublicKey) (message.Vote, bool) {
	if h.candidate == nil {
		return message.NoCandidateVote(), true
	}
	c := h.candidate
	block := c.Block

	voters, err := h.executor.VerifyCandidateHeader(ctx, c.Header, expectedGenerator)
	if err != nil {
		if opErr, ok := err.(*operations.OperationError); ok && !opErr.MustVote() {
			return message.Vote{}, false
		}
		return message.InvalidVote(c.BlockHash), true
	}

	if err := h.executor.VerifyFaults(ctx, block.Height, block.Faults); err != nil {
		return message.InvalidVote(c.BlockHash), true
	}

	out, err := h.executor.VerifyStateTransition(ctx, ru.StateRoot, block, voters)
	if err != nil {
		if opErr, ok := err.(*operations.OperationError); ok && !opErr.MustVote() {
			return message.Vote{}, false
		}
		return message.InvalidVote(c.BlockHash), true
	}

	if out.EventBloom != block.EventBloom || out.StateRoot != block.StateRoot {
		return message.InvalidVote(c.BlockHash), true
	}
	return message.ValidVote(c.BlockHash), true
}

// Verify checks signature validity, committee membership and iteration
// match (spec §4.3).
func (h *Handler) Verify(ctx context.Context, msg message.Message, ru commons.RoundUpdate, iteration uint8, comm *committee.Committee) error {
	if msg.Type != message.MsgValidation || msg.Validation == nil {
		return consensuserr.New(consensuserr.KindInvalidMsgType)
	}
	v := msg.Validation
	if !comm.IsMember(v.Header.Signer) {
		return consensuserr.New(consensuserr.KindNotCommitteeMember)
	}
	if !h.backend.Verify(v.Header.Signer, encodeValidationBody(v.Header, v.Vote), v.Header.Signature) {
		return consensuserr.New(consensuserr.KindInvalidSignature)
	}
	if v.Header.Iteration < iteration {
		return consensuserr.New(consensuserr.KindPastIteration)
	}
	if v.Header.Iteration > iteration {
		return consensuserr.New(consensuserr.KindFutureIteration)
	}
	return nil
}

// Collect aggregates v into the running StepVotes for its vote, becoming
// Ready once QUORUM_MAJ (Valid/Invalid) or QUORUM_NIL (NoCandidate) is
// met.
func (h *Handler) Collect(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	v := msg.Validation
	signedBody := encodeValidationBody(v.Header, v.Vote)
	sv, quorumReached, ok := h.agg.CollectVote(message.StepValidation, v.Header, v.Vote, v.Header.Signer, v.Header.Signature, comm, signedBody)
	if !ok {
		return step.Pending, nil
	}
	if !quorumReached {
		return step.Pending, nil
	}

	result := message.ValidationResult{Quorum: quorumTypeFor(v.Vote), Vote: v.Vote, StepVotes: sv}
	return step.ReadyWith(validationResultMessage(v.Header, result)), nil
}

// CollectFromPast mirrors Collect but is routed from the router for a
// past iteration's Validation message; Validation itself does not
// complete a certificate for a past iteration (only Ratification does
// via the registry), so this simply re-aggregates without being a Ready
// source for the executor.
func (h *Handler) CollectFromPast(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (step.Outcome, error) {
	v := msg.Validation
	signedBody := encodeValidationBody(v.Header, v.Vote)
	h.agg.CollectVote(message.StepValidation, v.Header, v.Vote, v.Header.Signer, v.Header.Signature, comm, signedBody)
	return step.Pending, nil
}

// HandleTimeout fires when the validation deadline elapses without
// quorum: a no-quorum ValidationResult is handed to Ratification.
func (h *Handler) HandleTimeout() step.Outcome {
	result := message.ValidationResult{Quorum: message.QuorumNone, Vote: message.NoQuorumVote()}
	return step.ReadyWith(validationResultMessage(message.ConsensusHeader{Iteration: h.iteration}, result))
}

// Result extracts the ValidationResult carried by a Ready outcome this
// handler produced (HandleTimeout or a quorum-reached Collect), for the
// iteration executor to hand to Ratification.
func Result(out step.Outcome) message.ValidationResult {
	if !out.Ready || out.Message.Ratification == nil {
		return message.ValidationResult{Quorum: message.QuorumNone, Vote: message.NoQuorumVote()}
	}
	return out.Message.Ratification.ValidationResult
}

func quorumTypeFor(v message.Vote) message.QuorumType {
	if v.Kind == message.VoteNoCandidate {
		return message.QuorumNil
	}
	return message.QuorumValid
}

// validationResultMessage packages a ValidationResult for hand-off; it is
// carried in a Ratification envelope so the iteration executor's uniform
// step-output plumbing can pass it straight into the Ratification step.
func validationResultMessage(header message.ConsensusHeader, result message.ValidationResult) message.Message {
	r := message.Ratification{Header: header, Vote: result.Vote, ValidationResult: result}
	return message.Message{Type: message.MsgRatification, Round: header.Round, Iteration: header.Iteration, Ratification: &r}
}

func encodeValidationBody(h message.ConsensusHeader, v message.Vote) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = append(buf, byte(v.Kind))
	buf = append(buf, v.Hash[:]...)
	return buf
}
