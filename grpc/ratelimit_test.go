package minichaingrpc

import (
	"testing"
	"time"
)

func TestPeerLimiter_PerKeyBuckets(t *testing.T) {
	l := NewPeerLimiter(RateLimitConfig{Enabled: true, RPS: 1, Burst: 2})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("third call within the same instant should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other peers have their own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatal("bucket should refill over time")
	}
}

func TestPeerLimiter_DisabledAllowsEverything(t *testing.T) {
	for _, cfg := range []RateLimitConfig{
		{Enabled: false, RPS: 1, Burst: 1},
		{Enabled: true, RPS: 0, Burst: 1},
		{Enabled: true, RPS: 1, Burst: 0},
	} {
		l := NewPeerLimiter(cfg)
		if l != nil {
			t.Fatalf("expected nil limiter for %+v", cfg)
		}
		for i := 0; i < 10; i++ {
			if !l.Allow("peer") {
				t.Fatalf("nil limiter rejected a call for %+v", cfg)
			}
		}
	}
}

func TestPeerLimiter_EvictsIdlePeers(t *testing.T) {
	l := NewPeerLimiter(RateLimitConfig{Enabled: true, RPS: 100, Burst: 1000, IdleTTL: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("idle")
	now = now.Add(2 * time.Minute)
	for i := 0; i < 511; i++ {
		l.Allow("busy")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byKey["idle"]; ok {
		t.Fatal("idle peer was not evicted")
	}
	if _, ok := l.byKey["busy"]; !ok {
		t.Fatal("busy peer was evicted")
	}
}
