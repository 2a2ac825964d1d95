package watch

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of events per key into one call to fire.
// fire runs on the timer goroutine after delay has passed without a new add.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	stopped bool
	fire    func(key string)
}

func newDebouncer(delay time.Duration, fire func(key string)) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// add schedules key, restarting its timer if one is pending.
func (d *debouncer) add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		d.fire(key)
	})
}

// pending returns the number of keys waiting to fire.
func (d *debouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// stop cancels every pending timer. Later adds are ignored.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
