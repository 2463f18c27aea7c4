// Package policy provides tool execution authorization.
package policy

import (
	"fmt"
	"time"
)

// Risk tier constants.
const (
	TierReadOnly = 0 // Read-only internal tools
	TierWrite    = 1 // Controlled write/internal effects
	TierHighRisk = 2 // External or high-impact actions
)

// Context holds information about a pending tool execution.
type Context struct {
	Sender      string
	Channel     string
	Tool        string
	Tier        int
	Arguments   map[string]any
	TraceID     string
	MessageType string // "internal" or "external"
}

// Decision is the result of a policy evaluation.
type Decision struct {
	Allow            bool
	RequiresApproval bool // tier exceeds auto-approve but interactive approval is possible
	Reason           string
	Tier             int
	Ts               time.Time
	TraceID          string
}

// Engine evaluates whether a tool execution should proceed.
type Engine interface {
	Evaluate(ctx Context) Decision
}

// DefaultEngine checks tool tier against the configured max tier and sender
// authorization.
type DefaultEngine struct {
	// MaxAutoTier is the highest tier that is auto-approved (default: 1).
	MaxAutoTier int
	// ExternalMaxTier is the highest tier auto-approved for external
	// messages. Defaults to 0 (read-only).
	ExternalMaxTier int
	// AllowedSenders is the set of senders permitted to trigger tools.
	// If empty, all senders are allowed.
	AllowedSenders map[string]bool
}

// NewDefaultEngine creates a policy engine with sensible defaults.
func NewDefaultEngine() *DefaultEngine {
	return &DefaultEngine{MaxAutoTier: TierWrite}
}

// Evaluate checks tool tier and sender authorization.
func (e *DefaultEngine) Evaluate(ctx Context) Decision {
	d := Decision{
		Tier:    ctx.Tier,
		Ts:      time.Now(),
		TraceID: ctx.TraceID,
	}

	// Tier 0 tools are always allowed.
	if ctx.Tier == TierReadOnly {
		d.Allow = true
		d.Reason = "tier_0_always_allowed"
		return d
	}

	if len(e.AllowedSenders) > 0 && ctx.Sender != "" {
		if !e.AllowedSenders[ctx.Sender] {
			d.Allow = false
			d.Reason = fmt.Sprintf("sender_not_authorized: %s", ctx.Sender)
			return d
		}
	}

	maxTier := e.MaxAutoTier
	if ctx.MessageType == "external" {
		maxTier = e.ExternalMaxTier
	}

	if ctx.Tier <= maxTier {
		d.Allow = true
		d.Reason = fmt.Sprintf("tier_%d_auto_approved", ctx.Tier)
		return d
	}

	// Above the auto-approve ceiling: the caller may still run the tool if
	// an interactive approval path exists.
	d.Allow = false
	d.RequiresApproval = true
	d.Reason = fmt.Sprintf("tier_%d_exceeds_max_%d", ctx.Tier, maxTier)
	return d
}
