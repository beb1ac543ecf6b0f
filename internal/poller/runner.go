// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run drives Tick every ScanInterval and the health counter every second
// until ctx is cancelled. Tick errors never stop the loop.
// The first tick runs immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.ScanInterval)
	defer ticker.Stop()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// ticks run off the select loop; the seconds counter must keep moving
	done := make(chan struct{}, 1)
	tick := func() {
		go func() {
			p.Tick(ctx)
			done <- struct{}{}
		}()
	}

	running := true
	tick()

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return

		case <-done:
			running = false

		case <-ticker.C:
			if running {
				// overlapping ticks are dropped
				p.log.Debug().Msg("scan interval elapsed while busy")
				continue
			}
			running = true
			tick()

		case <-secTicker.C:
			p.second()
		}
	}
}
