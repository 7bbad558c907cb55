package hours

import (
	"sync"
	"time"
)

// CheckInterval is how often the watcher re-evaluates the window. Callers
// showing a live "currently open" indicator need at least minute resolution.
const CheckInterval = time.Minute

// Watcher re-evaluates the delivery window on a fixed interval and delivers
// the open/closed state on C after every change.
type Watcher struct {
	C chan bool

	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher() *Watcher {
	return newWatcher(CheckInterval, time.Now)
}

func newWatcher(interval time.Duration, now func() time.Time) *Watcher {
	w := &Watcher{
		C:        make(chan bool, 1),
		interval: interval,
		now:      now,
		stop:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Watcher) run() {
	defer w.wg.Done()

	last := Open(w.now())
	w.C <- last

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			open := Open(w.now())
			if open == last {
				continue
			}
			last = open
			select {
			case w.C <- open:
			default: // receiver lagging, latest state wins
				select {
				case <-w.C:
				default:
				}
				w.C <- open
			}
		case <-w.stop:
			return
		}
	}
}

// Stop ends the watcher and waits for its goroutine to finish.
func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()
}
