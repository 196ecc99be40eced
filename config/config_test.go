package config

import "testing"

func TestValidateRejectsSmallMsize(t *testing.T) {
	c := Default()
	c.MaxMessageSize = 64
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for msize below minimum")
	}
}

func TestNegotiateMsize(t *testing.T) {
	c := Default()
	c.MaxMessageSize = 4096

	msize, ok := c.NegotiateMsize(8192)
	if !ok || msize != 4096 {
		t.Fatalf("got (%d, %v), want (4096, true)", msize, ok)
	}

	msize, ok = c.NegotiateMsize(2048)
	if !ok || msize != 2048 {
		t.Fatalf("got (%d, %v), want (2048, true)", msize, ok)
	}

	msize, ok = c.NegotiateMsize(64)
	if ok {
		t.Fatalf("expected negotiation to fail for msize %d, got ok with %d", 64, msize)
	}
}

func TestEffectiveRxBufSize(t *testing.T) {
	c := Default()
	c.MaxMessageSize = 8192
	if got := c.EffectiveRxBufSize(); got != 8192 {
		t.Fatalf("got %d, want 8192", got)
	}
	c.RxBufSize = 1024
	if got := c.EffectiveRxBufSize(); got != 1024 {
		t.Fatalf("got %d, want 1024", got)
	}
}
