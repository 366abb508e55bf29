package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rate      int64
		wantNil   bool
		wantBurst int
	}{
		{"Unlimited", 0, true, 0},
		{"Negative", -100, true, 0},
		{"SmallRateKeepsMinimumBurst", 1000, false, minBurst},
		{"BurstIsOneSecond", 4 * 1024 * 1024, false, 4 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewLimiter(tt.rate)
			if (limiter == nil) != tt.wantNil {
				t.Fatalf("NewLimiter(%d) = %v, want nil %v", tt.rate, limiter, tt.wantNil)
			}
			if tt.wantNil {
				if limiter.BytesPerSecond() != 0 {
					t.Error("a nil limiter should report 0 bytes per second")
				}
				return
			}
			if limiter.BytesPerSecond() != tt.rate {
				t.Errorf("BytesPerSecond() = %d, want %d", limiter.BytesPerSecond(), tt.rate)
			}
			if limiter.Burst() != tt.wantBurst {
				t.Errorf("Burst() = %d, want %d", limiter.Burst(), tt.wantBurst)
			}
		})
	}
}

func TestNewReaderWithoutLimiter(t *testing.T) {
	content := bytes.NewReader([]byte("photo bytes"))
	if got := NewReader(context.Background(), content, nil); got != io.Reader(content) {
		t.Error("NewReader() with a nil limiter should return the content unchanged")
	}
}

func TestReaderPreservesContent(t *testing.T) {
	content := bytes.Repeat([]byte("drivemirror"), 10000)
	reader := NewReader(context.Background(), bytes.NewReader(content), NewLimiter(100*1024*1024))

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("ReadAll() returned %d bytes, want the %d bytes written", len(got), len(content))
	}
}

func TestReaderCapsReadsAtBurst(t *testing.T) {
	limiter := NewLimiter(1000)
	reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 200*1024)), limiter)

	n, err := reader.Read(make([]byte, 200*1024))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if n != limiter.Burst() {
		t.Errorf("Read() n = %d, want burst %d", n, limiter.Burst())
	}
}

func TestReaderThrottles(t *testing.T) {
	// The bucket starts full, so only the bytes beyond one burst are delayed
	limiter := NewLimiter(100000)
	reader := NewReader(context.Background(), bytes.NewReader(make([]byte, 150000)), limiter)

	start := time.Now()
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("ReadAll() took %v, want at least 400ms", elapsed)
	}
}

func TestReaderStopsOnCancel(t *testing.T) {
	t.Run("BeforeRead", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := NewReader(ctx, bytes.NewReader([]byte("x")), NewLimiter(1000))
		if _, err := reader.Read(make([]byte, 1)); !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	})

	t.Run("WhileWaiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		reader := NewReader(ctx, bytes.NewReader(make([]byte, 200*1024)), NewLimiter(1000))
		if _, err := io.ReadAll(reader); err == nil {
			t.Error("ReadAll() should fail once the context expires")
		}
	})
}

func BenchmarkLimitedUpload(b *testing.B) {
	content := make([]byte, 1024*1024)
	limiter := NewLimiter(1024 * 1024 * 1024)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := io.Copy(io.Discard, NewReader(ctx, bytes.NewReader(content), limiter)); err != nil {
			b.Fatalf("Copy() error = %v", err)
		}
	}
}
