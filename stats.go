package main

import (
	"log"
	"time"
)

// runStats wakes roughly every minute, swaps the byte counters to zero,
// and logs one line when either total is non-zero. It sleeps until the
// next wall-clock minute boundary rather than a fixed interval, matching
// statsthread() in the original implementation.
func runStats(quiet bool) {
	for {
		now := time.Now()
		in, out := resetCounters()
		if !quiet && (in != 0 || out != 0) {
			log.Printf("[stats] %s in %d (%d kbyte/s) out %d (%d kbyte/s)",
				now.Format(time.ANSIC), in, (in+30000)/60000, out, (out+30000)/60000)
		}
		time.Sleep(time.Duration(60-now.Second()%60) * time.Second)
	}
}
