package domain

import (
	"fmt"
	"time"
)

// Side is the order side on the exchange.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the flattening side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// CopyStatus represents the lifecycle of a mirrored order.
// pending → executed | failed. Terminal statuses never regress.
type CopyStatus string

const (
	CopyStatusPending  CopyStatus = "pending"
	CopyStatusExecuted CopyStatus = "executed"
	CopyStatusFailed   CopyStatus = "failed"
)

// Change actions used to derive master trade IDs.
const (
	ActionOpen  = "open"
	ActionClose = "close"
)

// MasterTradeID derives the deterministic idempotency key for a master-side
// change: one key per (symbol, action, detection epoch), shared by every
// follower row that change produces. The (MasterTradeID, FollowerID) pair is
// unique in the ledger — that uniqueness is the exactly-once guarantee.
func MasterTradeID(symbol, action string, detectedAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d", symbol, action, detectedAt.Unix())
}

// CopyTrade is the durable record of one copy attempt for one follower.
// Created as pending when a change is detected, finalized exactly once,
// never deleted by the engine.
type CopyTrade struct {
	ID              string // UUID (local tracking)
	MasterTradeID   string
	FollowerID      int64
	Symbol          string
	Side            Side
	MasterSize      float64 // signed size of the triggering master position
	MasterPrice     float64
	CopiedSize      int // contracts, always >= 0; side carries direction
	IsClose         bool
	Status          CopyStatus
	FollowerOrderID string
	Reason          string // stored error reason when failed
	EntryTime       time.Time
	FinalizedAt     *time.Time
}

// CopyTradeFilter narrows ListCopyTrades — the dashboard's sole read path.
// Zero values mean "no filter".
type CopyTradeFilter struct {
	FollowerID int64
	Symbol     string
	Status     CopyStatus
	Since      time.Time
	Limit      int
}
