package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakePinger struct{ fail atomic.Bool }

func (p *fakePinger) HealthPing(context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

type fakeSink struct{ available atomic.Bool }

func (s *fakeSink) SetAvailable(v bool) { s.available.Store(v) }
func (s *fakeSink) Available() bool     { return s.available.Load() }

func TestMonitor_ProbeTogglesAvailability(t *testing.T) {
	pinger := &fakePinger{}
	sink := &fakeSink{}
	m := NewMonitor(pinger, sink, zerolog.Nop(), time.Second)

	if m.IsHealthy() {
		t.Fatalf("monitor should start unhealthy")
	}

	if ok := m.Probe(context.Background()); !ok {
		t.Fatalf("probe should succeed")
	}
	if !m.IsHealthy() || !sink.Available() {
		t.Fatalf("successful probe should mark remote available")
	}

	pinger.fail.Store(true)
	if ok := m.Probe(context.Background()); ok {
		t.Fatalf("probe should fail")
	}
	if m.IsHealthy() || sink.Available() {
		t.Fatalf("failed probe should mark remote unavailable")
	}
}

func TestMonitor_StartProbesPeriodically(t *testing.T) {
	pinger := &fakePinger{}
	sink := &fakeSink{}
	m := NewMonitor(pinger, sink, zerolog.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for !sink.Available() {
		if time.Now().After(deadline) {
			t.Fatalf("remote never became available")
		}
		time.Sleep(time.Millisecond)
	}

	pinger.fail.Store(true)
	deadline = time.Now().Add(time.Second)
	for sink.Available() {
		if time.Now().After(deadline) {
			t.Fatalf("remote never became unavailable")
		}
		time.Sleep(time.Millisecond)
	}
}
