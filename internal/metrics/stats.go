package metrics

import "time"

// Window accumulates training stats across multiple epochs.
type Window struct {
	samples int
	elapsed time.Duration
	epochs  int
	correct int
	total   int
	best    float64
}

// Record adds one epoch to the window. total is 0 for epochs that were not
// evaluated.
func (w *Window) Record(samples int, elapsed time.Duration, correct, total int) {
	w.samples += samples
	w.elapsed += elapsed
	w.epochs++
	if total > 0 {
		w.correct = correct
		w.total = total
		if acc := float64(correct) / float64(total); acc > w.best {
			w.best = acc
		}
	}
}

// Snapshot returns aggregated metrics and resets the window. The best
// accuracy survives the reset.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Epochs: w.epochs, BestAccuracy: w.best}
	if w.elapsed > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.elapsed.Seconds()
	}
	if w.epochs > 0 {
		snap.AvgEpochMS = (w.elapsed.Seconds() * 1000) / float64(w.epochs)
	}
	if w.total > 0 {
		snap.Accuracy = float64(w.correct) / float64(w.total)
	}

	w.samples = 0
	w.elapsed = 0
	w.epochs = 0
	w.correct = 0
	w.total = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Epochs        int
	SamplesPerSec float64
	AvgEpochMS    float64
	Accuracy      float64
	BestAccuracy  float64
}
