// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	luxlog "github.com/luxfi/log"

	"github.com/duskcore/consensus/bls"
	"github.com/duskcore/consensus/commons"
	"github.com/duskcore/consensus/config"
	"github.com/duskcore/consensus/message"
	"github.com/duskcore/consensus/metrics"
	"github.com/duskcore/consensus/operations"
	"github.com/duskcore/consensus/round"
	"github.com/duskcore/consensus/roundmock"
	"github.com/duskcore/consensus/slashing"
	"github.com/duskcore/consensus/user/provisioners"
	"github.com/duskcore/consensus/user/sortition"
	"github.com/duskcore/consensus/user/stake"
)

// scenario describes one of spec §8's end-to-end test scenarios.
type scenario struct {
	name        string
	description string
	configure   func(cfg *config.Config)
	builder     func() roundmock.CandidateBuilder
	executor    func() *roundmock.Executor
}

var baseBlock = message.Block{Height: 1, EventBloom: [32]byte{0xAB}, StateRoot: [32]byte{0xCD}}

var scenarios = []scenario{
	{
		name:        "S1",
		description: "happy path: all four validators honest, round decides Valid in iteration 0",
		builder:     func() roundmock.CandidateBuilder { return roundmock.CandidateBuilder{Block: baseBlock} },
		executor:    func() *roundmock.Executor { return &roundmock.Executor{} },
	},
	{
		name:        "S2",
		description: "generator crash: no candidate ever produced, round fails over through iterations without deciding",
		configure:   func(cfg *config.Config) { cfg.MaxIter = 3 },
		builder:     func() roundmock.CandidateBuilder { return roundmock.CandidateBuilder{Err: fmt.Errorf("generator offline")} },
		executor:    func() *roundmock.Executor { return &roundmock.Executor{} },
	},
	{
		// Equivocation detection itself (a double-signing validator's
		// second vote is recorded but never aggregated) is exercised at
		// the unit level in aggregator.TestAggregatorDetectsEquivocation,
		// since injecting it here would require knowing in advance which
		// committee member sortition draws — this scenario just confirms
		// the round still decides normally with an equivocation-capable
		// aggregator in the loop.
		name:        "S3",
		description: "equivocation-capable aggregator does not block quorum among otherwise-honest validators",
		builder:     func() roundmock.CandidateBuilder { return roundmock.CandidateBuilder{Block: baseBlock} },
		executor:    func() *roundmock.Executor { return &roundmock.Executor{} },
	},
	{
		name:        "S5",
		description: "invalid state transition: VM executor disagrees with the candidate's claimed roots, round certifies Invalid",
		builder:     func() roundmock.CandidateBuilder { return roundmock.CandidateBuilder{Block: baseBlock} },
		executor: func() *roundmock.Executor {
			return &roundmock.Executor{
				VSTFn: func(ctx context.Context, prevStateRoot [32]byte, block message.Block, voters []operations.Voter) (operations.StateTransitionOutput, error) {
					return operations.StateTransitionOutput{EventBloom: [32]byte{0xFF}, StateRoot: [32]byte{0xFF}}, nil
				},
			}
		},
	},
	{
		name:        "S6",
		description: "emergency iteration: NoCandidate is suppressed once EMERGENCY_ITER is reached, round eventually decides",
		configure:   func(cfg *config.Config) { cfg.EmergencyIter = 0; cfg.MaxIter = 1 },
		builder:     func() roundmock.CandidateBuilder { return roundmock.CandidateBuilder{Block: baseBlock} },
		executor:    func() *roundmock.Executor { return &roundmock.Executor{} },
	},
}

// runScenario builds a four-validator committee and drives one round
// under s's configuration, printing the decided outcome or error.
func runScenario(cmd *cobra.Command, s scenario) error {
	fmt.Fprintf(cmd.OutOrStdout(), "=== %s: %s ===\n", s.name, s.description)

	provs := provisioners.Empty()
	var sks []bls.SecretKey
	for i := byte(0); i < 4; i++ {
		sk := bls.KeyFromSeed([32]byte{i + 1})
		sks = append(sks, sk)
		provs.AddMember(sk.PublicKey(), stake.FromValue(1_000*config.DuskUnit))
	}

	cfg := config.Default()
	cfg.CommitteeCreditsValidation = 4
	cfg.CommitteeCreditsRatification = 4
	cfg.QuorumMaj = config.QuorumMajority(4)
	cfg.QuorumNil = config.QuorumSimple(4)
	cfg.TProp = 150 * time.Millisecond
	cfg.TVal = 150 * time.Millisecond
	cfg.TRat = 150 * time.Millisecond
	if s.configure != nil {
		s.configure(&cfg)
	}

	backend := bls.MockBackend{}
	net := &roundmock.Network{}
	met := metrics.NewNoop()
	log := luxlog.NewNoOpLogger()

	var controllers []*round.Controller
	for _, sk := range sks {
		ru := commons.RoundUpdate{Round: 1, Seed: sortition.Seed{}, SecretKey: sk, PubKey: sk.PublicKey()}
		inbox := round.NewMemInbox(64)
		net.Attach(inbox.Push)
		c := round.New(ru, cfg, backend, s.executor(), s.builder(), met, log, provs)
		c.Run(context.Background(), net, inbox)
		controllers = append(controllers, c)
	}

	for i, c := range controllers {
		select {
		case res := <-c.ResultChan():
			if res.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  validator %d: error: %v\n", i, res.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  validator %d: decided %s at iteration %d\n", i, res.Quorum.Vote.Kind, res.Quorum.Header.Iteration)
		case <-time.After(10 * time.Second):
			fmt.Fprintf(cmd.OutOrStdout(), "  validator %d: timed out waiting for a result\n", i)
		}
	}

	if len(controllers) > 0 {
		penalties := slashing.ExtractPenalized(controllers[0].FailedGenerators(255))
		for _, p := range penalties {
			fmt.Fprintf(cmd.OutOrStdout(), "  penalty: iteration %d generator %s -> %s\n", p.Iteration, p.Generator, p.Kind)
		}
	}
	return nil
}
