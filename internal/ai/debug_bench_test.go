package ai

import (
	"io"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func discardLogs(b *testing.B, level slog.Level) {
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})))
	b.Cleanup(func() {
		slog.SetDefault(prev)
		EnableDebugLogging(false)
	})
}

// BenchmarkTick_DebugDisabled is the production path: one atomic load per
// guarded log site.
func BenchmarkTick_DebugDisabled(b *testing.B) {
	discardLogs(b, slog.LevelInfo)
	EnableDebugLogging(false)
	benchTick(b)
}

func BenchmarkTick_DebugEnabled(b *testing.B) {
	discardLogs(b, slog.LevelDebug)
	EnableDebugLogging(true)
	benchTick(b)
}

// benchTick keeps one tank bouncing between Chase and Attack so transition
// logging fires regularly.
func benchTick(b *testing.B) {
	sc := newScene(b, withTarget(mgl64.Vec3{150, 0, 0}))

	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		if i%100 == 0 {
			sc.target.SetPosition(mgl64.Vec3{150 + float64(i%300), 0, 0})
		}
		sc.ai.Tick(0.02)
	}
}
