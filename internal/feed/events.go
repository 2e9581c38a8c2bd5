package feed

import (
	"sync"
)

// Event is a notification from the engine to the presentation layer.
// Events are delivered from worker goroutines; consumers must hop to their
// own loop before touching UI state.
type Event interface {
	isEvent()
}

// SnapshotMode says how a snapshot was produced.
type SnapshotMode int

const (
	ModeReplace SnapshotMode = iota
	ModeAppend
)

func (m SnapshotMode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// SnapshotChanged carries a series' new item sequence after a successful
// fetch. Added holds the items of the fetched page. Items must not be
// modified by the receiver.
type SnapshotChanged[T any] struct {
	Series      Series
	Mode        SnapshotMode
	Items       []T
	Added       []T
	CurrentPage int
	TotalPages  int
}

// ArtworkResolved announces background-resolved artwork for one artist.
type ArtworkResolved struct {
	Name string
	URL  string
}

// NowPlayingChanged announces a new live row, or none when Entry is nil.
type NowPlayingChanged struct {
	Entry *TrackEntry
}

// FetchFailed reports a failed fetch. The series kept its previous state.
type FetchFailed struct {
	Series Series
	Err    error
}

// TickSkipped reports an auto-refresh tick dropped because a series was busy.
type TickSkipped struct {
	TracksBusy  bool
	ArtistsBusy bool
}

func (SnapshotChanged[T]) isEvent() {}
func (ArtworkResolved) isEvent()    {}
func (NowPlayingChanged) isEvent()  {}
func (FetchFailed) isEvent()        {}
func (TickSkipped) isEvent()        {}

// Publisher delivers events.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) {
	f(e)
}

func publish(p Publisher, e Event) {
	if p != nil {
		p.Publish(e)
	}
}

// ChanPublisher hands events to a single consumer over a buffered channel.
// Publish blocks while the buffer is full, so events are never dropped, and
// returns immediately once Close has been called.
type ChanPublisher struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewChanPublisher creates a ChanPublisher with the given buffer size.
func NewChanPublisher(buffer int) *ChanPublisher {
	return &ChanPublisher{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Events returns the channel to consume. It is never closed; select on
// Done as well.
func (p *ChanPublisher) Events() <-chan Event {
	return p.ch
}

// Done is closed by Close.
func (p *ChanPublisher) Done() <-chan struct{} {
	return p.done
}

// Publish implements Publisher.
func (p *ChanPublisher) Publish(e Event) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.ch <- e:
	case <-p.done:
	}
}

// Close releases blocked publishers and stops delivery.
func (p *ChanPublisher) Close() {
	p.once.Do(func() { close(p.done) })
}
