package monitor

// Classification is the detector's verdict for one observation.
type Classification int

const (
	// FirstSighting means the key was unseen; state is now populated but no
	// event may be emitted for it.
	FirstSighting Classification = iota
	// Unchanged means the value equals the last known one.
	Unchanged
	// Transitioned means a known key's value changed; the observation is
	// eligible for an event.
	Transitioned
)

// Detector remembers the last observation per key and classifies each new
// one against it. An instance is private to a single poll loop and never
// shared, so no locking is needed. State lives for the process lifetime
// only.
type Detector[K comparable, V any] struct {
	known map[K]V
	equal func(a, b V) bool
}

// NewDetector creates a Detector using equal as the loop's equality rule.
func NewDetector[K comparable, V any](equal func(a, b V) bool) *Detector[K, V] {
	return &Detector[K, V]{
		known: make(map[K]V),
		equal: equal,
	}
}

// Observe records value under key and reports whether it is a first
// sighting, a repeat, or a transition. State is replaced atomically per
// key; an unchanged observation leaves it untouched.
func (d *Detector[K, V]) Observe(key K, value V) Classification {
	prev, ok := d.known[key]
	if !ok {
		d.known[key] = value
		return FirstSighting
	}
	if d.equal(prev, value) {
		return Unchanged
	}
	d.known[key] = value
	return Transitioned
}

// Seen reports whether key has been observed at least once.
func (d *Detector[K, V]) Seen(key K) bool {
	_, ok := d.known[key]
	return ok
}

// Len returns the number of tracked keys.
func (d *Detector[K, V]) Len() int { return len(d.known) }
