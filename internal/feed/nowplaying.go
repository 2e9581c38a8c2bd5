package feed

import "sync"

// FindNowPlaying returns the first live row of tracks.
func FindNowPlaying(tracks []TrackEntry) (TrackEntry, bool) {
	for _, t := range tracks {
		if t.LiveNow {
			return t, true
		}
	}
	return TrackEntry{}, false
}

// Tracker derives the now-playing row from each tracks snapshot and
// publishes NowPlayingChanged when it changes.
type Tracker struct {
	pub Publisher

	mu      sync.Mutex
	current *TrackEntry
}

// NewTracker creates a Tracker publishing to pub.
func NewTracker(pub Publisher) *Tracker {
	return &Tracker{pub: pub}
}

// Update recomputes the now-playing row from tracks and reports whether
// it changed.
func (t *Tracker) Update(tracks []TrackEntry) bool {
	var next *TrackEntry
	if entry, ok := FindNowPlaying(tracks); ok {
		next = &entry
	}

	t.mu.Lock()
	if sameTrack(t.current, next) {
		t.mu.Unlock()
		return false
	}
	t.current = next
	t.mu.Unlock()

	var out *TrackEntry
	if next != nil {
		cp := *next
		out = &cp
	}
	publish(t.pub, NowPlayingChanged{Entry: out})
	return true
}

// Current returns the last computed now-playing row.
func (t *Tracker) Current() (TrackEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return TrackEntry{}, false
	}
	return *t.current, true
}

func sameTrack(a, b *TrackEntry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Title == b.Title &&
		a.Artist == b.Artist &&
		a.Album == b.Album &&
		a.ArtworkURL == b.ArtworkURL
}
