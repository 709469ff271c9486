// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package step defines the uniform step-handler contract shared by
// proposal, validation and ratification (spec §4.3, component C3),
// grounded on the MsgHandler trait referenced from original_source/
// consensus/src/ratification/handler.rs (`verify`/`collect`/
// `collect_from_past`/`handle_timeout`, `HandleMsgOutput::{Pending,Ready}`).
package step

import (
	"context"

	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/user/committee"
)

// Outcome is the result of feeding one message (or a timeout) to a step
// handler — the Go rendering of HandleMsgOutput.
type Outcome struct {
	Ready   bool
	Message message.Message
}

// Pending is the zero Outcome: nothing to hand upstream yet.
var Pending = Outcome{}

// ReadyWith wraps msg as a Ready outcome.
func ReadyWith(msg message.Message) Outcome { return Outcome{Ready: true, Message: msg} }

// Handler is the uniform per-step contract every one of Proposal,
// Validation and Ratification implements.
type Handler interface {
	Verify(ctx context.Context, msg message.Message, ru commons.RoundUpdate, iteration uint8, comm *committee.Committee) error
	Collect(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (Outcome, error)
	CollectFromPast(ctx context.Context, msg message.Message, ru commons.RoundUpdate, comm *committee.Committee) (Outcome, error)
	HandleTimeout() Outcome
	Name() string
}
