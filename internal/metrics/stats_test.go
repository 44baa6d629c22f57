package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(1000, 200*time.Millisecond, 90, 100)
	w.Record(1000, 300*time.Millisecond, 80, 100)
	snap := w.Snapshot()
	if math.Abs(snap.SamplesPerSec-4000) > 1e-6 {
		t.Fatalf("unexpected throughput %.2f", snap.SamplesPerSec)
	}
	if math.Abs(snap.AvgEpochMS-250) > 1e-6 {
		t.Fatalf("unexpected epoch time %.2f", snap.AvgEpochMS)
	}
	if snap.Accuracy != 0.8 {
		t.Fatalf("expected last accuracy 0.8, got %.2f", snap.Accuracy)
	}
	if snap.BestAccuracy != 0.9 {
		t.Fatalf("expected best accuracy 0.9, got %.2f", snap.BestAccuracy)
	}
	if w.samples != 0 || w.epochs != 0 {
		t.Fatalf("window was not reset")
	}
	if w.Snapshot().BestAccuracy != 0.9 {
		t.Fatalf("best accuracy lost on reset")
	}
}

func TestWindowWithoutEvaluation(t *testing.T) {
	var w Window
	w.Record(10, time.Second, 0, 0)
	snap := w.Snapshot()
	if snap.Accuracy != 0 || snap.BestAccuracy != 0 {
		t.Fatalf("expected no accuracy, got %+v", snap)
	}
	if snap.Epochs != 1 || snap.SamplesPerSec != 10 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
