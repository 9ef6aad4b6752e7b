package pyramid

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// progressBar renders an in-place terminal progress bar for one level's
// slicing pass, refreshed at a fixed interval. Adapted from the teacher's
// progress bar: tiles are "processed" as soon as they are dispatched
// (symlinked or submitted), not when encoding finishes, since dispatch is
// what the driver can observe synchronously.
type progressBar struct {
	total     int64
	processed atomic.Int64
	label     string
	barWidth  int
	start     time.Time
	done      chan struct{}
}

func newProgressBar(label string, total int64) *progressBar {
	pb := &progressBar{
		total:    total,
		label:    label,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go pb.run()
	return pb
}

func (pb *progressBar) Increment() {
	pb.processed.Add(1)
}

func (pb *progressBar) Finish() {
	close(pb.done)
	pb.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (pb *progressBar) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
			pb.draw()
		}
	}
}

func (pb *progressBar) draw() {
	processed := pb.processed.Load()
	total := pb.total

	var frac float64
	if total > 0 {
		frac = float64(processed) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(pb.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.barWidth-filled)

	fmt.Fprintf(os.Stderr, "\r%s [%s] %3.0f%%  %d/%d tiles\033[K",
		pb.label, bar, frac*100, processed, total)
}
