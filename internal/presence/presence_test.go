package presence

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Unity-Lab-AI/cora/internal/logger"
)

type fakeDetector struct {
	present bool
	err     error
	calls   int
}

func (f *fakeDetector) Present(_ context.Context) (bool, error) {
	f.calls++
	return f.present, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, io.Discard)
}

func TestNilDetectorAlwaysPresent(t *testing.T) {
	g := New(nil, testLogger())
	if !g.Present(context.Background()) {
		t.Error("nil detector should report present")
	}
}

func TestCachesWithinTTL(t *testing.T) {
	det := &fakeDetector{present: true}
	now := time.Now()
	g := New(det, testLogger(), WithClock(func() time.Time { return now }))

	for i := 0; i < 5; i++ {
		g.Present(context.Background())
	}
	if det.calls != 1 {
		t.Errorf("detector called %d times within TTL, want 1", det.calls)
	}
}

func TestProbesAgainAfterTTL(t *testing.T) {
	det := &fakeDetector{present: true}
	now := time.Now()
	g := New(det, testLogger(), WithClock(func() time.Time { return now }))

	g.Present(context.Background())
	det.present = false
	now = now.Add(DefaultTTL + time.Millisecond)

	if g.Present(context.Background()) {
		t.Error("expected fresh probe result after TTL expiry")
	}
	if det.calls != 2 {
		t.Errorf("detector called %d times, want 2", det.calls)
	}
}

func TestErrorAssumesPresent(t *testing.T) {
	det := &fakeDetector{present: false, err: errors.New("camera offline")}
	g := New(det, testLogger())
	if !g.Present(context.Background()) {
		t.Error("probe error should fall back to present")
	}
}

func TestInvalidate(t *testing.T) {
	det := &fakeDetector{present: true}
	g := New(det, testLogger())

	g.Present(context.Background())
	g.Invalidate()
	g.Present(context.Background())

	if det.calls != 2 {
		t.Errorf("detector called %d times after invalidate, want 2", det.calls)
	}
}
