// Copyright (c) 2026 duskcore contributors. All rights reserved.
// Use of this source code is governed by the MIT license in the LICENSE file.

// Package config defines the tunables of the consensus core. It follows the
// plain-struct-with-defaults convention used throughout the pack (no
// reflection-based env binding library is pulled in for this single,
// small struct): a Default() constructor plus an explicit FromEnv overlay.
package config

import (
	"os"
	"strconv"
	"time"
)

// DuskUnit is the integer unit subtracted per extracted sortition credit.
const DuskUnit uint64 = 1_000_000_000

// Config holds every round-independent tunable named in spec §6.
type Config struct {
	// MinStake is the eligibility floor, in micro-units.
	MinStake uint64
	// DuskUnit is the integer unit subtracted per extracted credit.
	DuskUnit uint64

	// CommitteeCreditsProposal is always 1; kept explicit for clarity at
	// call sites that build a sortition.Config.
	CommitteeCreditsProposal     int
	CommitteeCreditsValidation   int
	CommitteeCreditsRatification int

	// QuorumMaj is the supermajority threshold for Valid/Invalid votes in
	// normal iterations: ceil(2*credits/3) + 1.
	QuorumMaj int
	// QuorumNil is the simple-majority threshold for NoCandidate/NoQuorum.
	QuorumNil int

	TProp time.Duration
	TVal  time.Duration
	TRat  time.Duration

	// TimeoutBackoff multiplies step deadlines per iteration, capped at
	// TimeoutCap.
	TimeoutBackoff float64
	TimeoutCap     time.Duration

	// EmergencyIter is the iteration at which emergency mode engages.
	EmergencyIter uint8
	// MaxIter is the hard cap on iterations per round.
	MaxIter uint8

	AcceptBlockTimeout time.Duration
}

// Default returns the reference parameterisation: a 64-credit
// Validation/Ratification committee with QUORUM_MAJ=44 (ceil(2*64/3)+1) and
// QUORUM_NIL=33 (simple majority of 64).
func Default() Config {
	return Config{
		MinStake:                     1_000 * DuskUnit,
		DuskUnit:                     DuskUnit,
		CommitteeCreditsProposal:     1,
		CommitteeCreditsValidation:   64,
		CommitteeCreditsRatification: 64,
		QuorumMaj:                    QuorumMajority(64),
		QuorumNil:                    QuorumSimple(64),
		TProp:                        3 * time.Second,
		TVal:                         3 * time.Second,
		TRat:                         3 * time.Second,
		TimeoutBackoff:               1.2,
		TimeoutCap:                   40 * time.Second,
		EmergencyIter:                10,
		MaxIter:                      255,
		AcceptBlockTimeout:           40 * time.Second,
	}
}

// QuorumMajority computes ceil(2*credits/3) + 1.
func QuorumMajority(credits int) int {
	return (2*credits+2)/3 + 1
}

// QuorumSimple computes a simple majority of credits.
func QuorumSimple(credits int) int {
	return credits/2 + 1
}

// IsEmergencyIter reports whether iteration has reached emergency mode.
func (c Config) IsEmergencyIter(iteration uint8) bool {
	return iteration >= c.EmergencyIter
}

// StepDeadline returns the backed-off deadline for base at iteration,
// capped at c.TimeoutCap.
func (c Config) StepDeadline(base time.Duration, iteration uint8) time.Duration {
	d := float64(base)
	for i := uint8(0); i < iteration; i++ {
		d *= c.TimeoutBackoff
		if time.Duration(d) >= c.TimeoutCap {
			return c.TimeoutCap
		}
	}
	return time.Duration(d)
}

// FromEnv overlays environment variables (named per spec §6) onto cfg,
// leaving any unset variable's field untouched.
func FromEnv(cfg Config) Config {
	if v, ok := getUint64("MIN_STAKE"); ok {
		cfg.MinStake = v
	}
	if v, ok := getUint64("DUSK_UNIT"); ok {
		cfg.DuskUnit = v
	}
	if v, ok := getInt("COMMITTEE_CREDITS_VALIDATION"); ok {
		cfg.CommitteeCreditsValidation = v
		cfg.QuorumMaj = QuorumMajority(v)
	}
	if v, ok := getInt("COMMITTEE_CREDITS_RATIFICATION"); ok {
		cfg.CommitteeCreditsRatification = v
		cfg.QuorumNil = QuorumSimple(v)
	}
	if v, ok := getDurationMS("T_PROP_MS"); ok {
		cfg.TProp = v
	}
	if v, ok := getDurationMS("T_VAL_MS"); ok {
		cfg.TVal = v
	}
	if v, ok := getDurationMS("T_RAT_MS"); ok {
		cfg.TRat = v
	}
	if v, ok := getFloat("TIMEOUT_BACKOFF"); ok {
		cfg.TimeoutBackoff = v
	}
	if v, ok := getInt("EMERGENCY_ITER"); ok {
		cfg.EmergencyIter = uint8(v)
	}
	if v, ok := getInt("MAX_ITER"); ok {
		cfg.MaxIter = uint8(v)
	}
	if v, ok := getDurationS("ACCEPT_BLOCK_TIMEOUT_SEC"); ok {
		cfg.AcceptBlockTimeout = v
	}
	return cfg
}

func getUint64(name string) (uint64, bool) {
	s, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

func getInt(name string) (int, bool) {
	s, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func getFloat(name string) (float64, bool) {
	s, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func getDurationMS(name string) (time.Duration, bool) {
	v, ok := getInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Millisecond, true
}

func getDurationS(name string) (time.Duration, bool) {
	v, ok := getInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(v) * time.Second, true
}
