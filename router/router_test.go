// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package router_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	luxlog "github.com/luxfi/log"

	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/router"
)

func TestClassifyTable(t *testing.T) {
	require.Equal(t, router.Discarded, router.Classify(message.Message{Round: 1}, 2, 0))
	require.Equal(t, router.Buffered, router.Classify(message.Message{Round: 3}, 2, 0))
	require.Equal(t, router.DispatchCurrent, router.Classify(message.Message{Round: 2, Iteration: 1}, 2, 1))
	require.Equal(t, router.DispatchPast, router.Classify(message.Message{Round: 2, Iteration: 0}, 2, 1))
	require.Equal(t, router.Buffered, router.Classify(message.Message{Round: 2, Iteration: 2}, 2, 1))
}

func TestRouteDispatchesCurrentImmediately(t *testing.T) {
	var got []message.Message
	r := router.New(5, 16, func(ctx context.Context, msg message.Message, past bool) {
		require.False(t, past)
		got = append(got, msg)
	}, luxlog.NewNoOpLogger())

	disp := r.Route(context.Background(), message.Message{Round: 5, Iteration: 0, Type: message.MsgCandidate})
	require.Equal(t, router.DispatchCurrent, disp)
	require.Len(t, got, 1)
}

func TestRouteBuffersFutureRoundThenDrainsOnAdvance(t *testing.T) {
	var dispatched []message.Message
	r := router.New(5, 16, func(ctx context.Context, msg message.Message, past bool) {
		dispatched = append(dispatched, msg)
	}, luxlog.NewNoOpLogger())

	disp := r.Route(context.Background(), message.Message{Round: 6, Iteration: 0, Type: message.MsgCandidate})
	require.Equal(t, router.Buffered, disp)
	require.Empty(t, dispatched)

	r.AdvanceRound(context.Background(), 6)
	require.Len(t, dispatched, 1)
}

func TestRouteBuffersFutureIterationThenDrainsOnAdvanceIteration(t *testing.T) {
	var dispatched []message.Message
	r := router.New(5, 16, func(ctx context.Context, msg message.Message, past bool) {
		dispatched = append(dispatched, msg)
	}, luxlog.NewNoOpLogger())

	disp := r.Route(context.Background(), message.Message{Round: 5, Iteration: 1, Type: message.MsgCandidate})
	require.Equal(t, router.Buffered, disp)
	require.Empty(t, dispatched)

	r.AdvanceIteration(context.Background(), 1)
	require.Len(t, dispatched, 1)
}

func TestFutureQueueDropsOldestOnOverflow(t *testing.T) {
	var dispatched []message.Message
	r := router.New(5, 2, func(ctx context.Context, msg message.Message, past bool) {
		dispatched = append(dispatched, msg)
	}, luxlog.NewNoOpLogger())

	r.Route(context.Background(), message.Message{Round: 6, Iteration: 0, Candidate: &message.Candidate{BlockHash: message.Hash{1}}})
	r.Route(context.Background(), message.Message{Round: 6, Iteration: 0, Candidate: &message.Candidate{BlockHash: message.Hash{2}}})
	r.Route(context.Background(), message.Message{Round: 6, Iteration: 0, Candidate: &message.Candidate{BlockHash: message.Hash{3}}})

	r.AdvanceRound(context.Background(), 6)
	require.Len(t, dispatched, 2)
	require.Equal(t, message.Hash{2}, dispatched[0].Candidate.BlockHash)
	require.Equal(t, message.Hash{3}, dispatched[1].Candidate.BlockHash)
}

func TestFilterRejectsMalformedMessages(t *testing.T) {
	var dispatched []message.Message
	r := router.New(5, 16, func(ctx context.Context, msg message.Message, past bool) {
		dispatched = append(dispatched, msg)
	}, luxlog.NewNoOpLogger())
	r.SetFilter(message.MsgCandidate, func(msg message.Message) bool { return false })

	disp := r.Route(context.Background(), message.Message{Round: 5, Iteration: 0, Type: message.MsgCandidate})
	require.Equal(t, router.Discarded, disp)
	require.Empty(t, dispatched)
}
