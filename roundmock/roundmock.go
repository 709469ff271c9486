// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package roundmock provides hand-written fakes for the operations.Executor
// and operations.Network collaborator boundaries, for use by round-level
// scenario tests. go.uber.org/mock code generation cannot run in this
// environment, so these fakes are written by hand in the style of
// bls.MockBackend.
package roundmock

import (
	"context"
	"sync"

	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/operations"
)

// Executor is a scriptable operations.Executor: each hook defaults to an
// always-valid response, and tests override only the hook they need to
// exercise.
type Executor struct {
	HeaderFn func(ctx context.Context, h message.ConsensusHeader, expected message.PublicKey) ([]operations.Voter, error)
	FaultsFn func(ctx context.Context, height uint64, faults [][]byte) error
	VSTFn    func(ctx context.Context, prevStateRoot [32]byte, block message.Block, voters []operations.Voter) (operations.StateTransitionOutput, error)
}

func (e *Executor) VerifyCandidateHeader(ctx context.Context, h message.ConsensusHeader, expected message.PublicKey) ([]operations.Voter, error) {
	if e.HeaderFn != nil {
		return e.HeaderFn(ctx, h, expected)
	}
	return nil, nil
}

func (e *Executor) VerifyFaults(ctx context.Context, height uint64, faults [][]byte) error {
	if e.FaultsFn != nil {
		return e.FaultsFn(ctx, height, faults)
	}
	return nil
}

func (e *Executor) VerifyStateTransition(ctx context.Context, prevStateRoot [32]byte, block message.Block, voters []operations.Voter) (operations.StateTransitionOutput, error) {
	if e.VSTFn != nil {
		return e.VSTFn(ctx, prevStateRoot, block, voters)
	}
	return operations.StateTransitionOutput{EventBloom: block.EventBloom, StateRoot: block.StateRoot}, nil
}

// CandidateBuilder is a scriptable proposal.CandidateBuilder: it always
// proposes Block with the header's round/iteration filled in by the caller.
type CandidateBuilder struct {
	Block message.Block
	Err   error
}

func (b CandidateBuilder) BuildCandidate(ctx context.Context, ru commons.RoundUpdate, iteration uint8) (message.Block, error) {
	return b.Block, b.Err
}

// Network is an in-process operations.Network that fans every Broadcast out
// to a set of registered inboxes, simulating perfect point-to-point
// delivery among a fixed validator set for scenario tests.
type Network struct {
	mu      sync.Mutex
	inboxes []func(message.Message)
}

// Attach registers push as a delivery target for every future Broadcast.
func (n *Network) Attach(push func(message.Message)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inboxes = append(n.inboxes, push)
}

func (n *Network) Broadcast(ctx context.Context, msg message.Message) error {
	n.mu.Lock()
	targets := append([]func(message.Message){}, n.inboxes...)
	n.mu.Unlock()
	for _, push := range targets {
		push(msg)
	}
	return nil
}

func (n *Network) SendToPeer(ctx context.Context, msg message.Message, addr string) error {
	return n.Broadcast(ctx, msg)
}

func (n *Network) SendToAlivePeers(ctx context.Context, msg message.Message, fanout int) error {
	return n.Broadcast(ctx, msg)
}
