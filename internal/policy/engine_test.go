package policy

import "testing"

func TestTierZeroAlwaysAllowed(t *testing.T) {
	e := &DefaultEngine{AllowedSenders: map[string]bool{"alice": true}}
	d := e.Evaluate(Context{Sender: "mallory", Tool: "read_file", Tier: TierReadOnly})
	if !d.Allow {
		t.Errorf("read-only tools must always be allowed: %+v", d)
	}
}

func TestSenderAllowlist(t *testing.T) {
	e := &DefaultEngine{MaxAutoTier: TierWrite, AllowedSenders: map[string]bool{"alice": true}}

	if d := e.Evaluate(Context{Sender: "alice", Tier: TierWrite}); !d.Allow {
		t.Errorf("listed sender denied: %+v", d)
	}
	if d := e.Evaluate(Context{Sender: "mallory", Tier: TierWrite}); d.Allow {
		t.Errorf("unlisted sender allowed: %+v", d)
	}
}

func TestExternalMessagesGetLowerCeiling(t *testing.T) {
	e := &DefaultEngine{MaxAutoTier: TierWrite, ExternalMaxTier: TierReadOnly}

	if d := e.Evaluate(Context{Tier: TierWrite, MessageType: "internal"}); !d.Allow {
		t.Errorf("internal write denied: %+v", d)
	}
	d := e.Evaluate(Context{Tier: TierWrite, MessageType: "external"})
	if d.Allow {
		t.Errorf("external write allowed past ceiling: %+v", d)
	}
	if !d.RequiresApproval {
		t.Errorf("above-ceiling denial should offer approval: %+v", d)
	}
}

func TestHighRiskRequiresApproval(t *testing.T) {
	e := NewDefaultEngine()
	d := e.Evaluate(Context{Tier: TierHighRisk})
	if d.Allow || !d.RequiresApproval {
		t.Errorf("high-risk tools need approval: %+v", d)
	}
}
