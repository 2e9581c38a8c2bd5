package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/scrobbledash/internal/feed"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// Column widths for the tables
const (
	titleWidth  = 32
	artistWidth = 24
	albumWidth  = 28
	playedWidth = 16
	nameWidth   = 32
	countWidth  = 8
)

// Config holds TUI configuration options
type Config struct {
	RefreshRate time.Duration // How often relative times are redrawn
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 30 * time.Second,
	}
}

// Controls is what the keyboard drives. *feed.Dashboard implements it.
type Controls interface {
	RefreshAll(ctx context.Context) bool
	LoadMoreTracks(ctx context.Context) bool
	Busy() (tracks, artists bool)
	Interval() time.Duration
	SetInterval(d time.Duration) error
	ArtworkFor(row feed.ArtistEntry) string
}

// App is the TUI dashboard for a user's Last.fm activity
type App struct {
	app        *tview.Application
	nowPlaying *tview.TextView
	tracks     *tview.Table
	artists    *tview.Table
	status     *tview.TextView

	config   Config
	controls Controls
	ctx      context.Context

	// Mutex protects state written by the event goroutine and read by
	// the draw callback.
	mu sync.Mutex

	// Current state (guarded by mu)
	trackRows   []feed.TrackEntry
	artistRows  []feed.ArtistEntry
	current     *feed.TrackEntry
	trackPage   int
	trackTotal  int
	statusText  string
	lastUpdated time.Time

	// Context cancel function
	cancelFunc context.CancelFunc
}

// New creates a new TUI application driving controls
func New(controls Controls, cfg Config) *App {
	a := &App{
		app:        tview.NewApplication(),
		config:     cfg,
		controls:   controls,
		ctx:        context.Background(),
		trackPage:  1,
		trackTotal: 1,
		statusText: "Loading...",
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	// Now playing bar
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	// Recent tracks
	a.tracks = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	a.tracks.SetBorder(true).
		SetTitle(" Recent Tracks ").
		SetTitleAlign(tview.AlignLeft)

	// Top artists
	a.artists = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	a.artists.SetBorder(true).
		SetTitle(" Top Artists ").
		SetTitleAlign(tview.AlignLeft)

	// Status bar
	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	// Top row: now playing
	// Middle row: recent tracks | top artists
	// Footer: status bar
	middle := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.tracks, 0, 3, true).
		AddItem(a.artists, 0, 2, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.nowPlaying, 4, 1, false).
		AddItem(middle, 0, 1, true).
		AddItem(a.status, 1, 1, false)

	// Handle keyboard input
	a.app.SetInputCapture(a.handleKeyEvent)

	a.app.SetRoot(flex, true)
	a.render(time.Now())
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q', 'Q':
		a.Stop()
		return nil
	case 'r', 'R':
		if !a.controls.RefreshAll(a.ctx) {
			a.setStatus("Refresh already in progress")
		} else {
			a.setStatus("Refreshing...")
		}
		return nil
	case 'm', 'M':
		switch {
		case a.controls.LoadMoreTracks(a.ctx):
			a.setStatus("Loading more tracks...")
		case a.tracksBusy():
			a.setStatus("Tracks are still loading")
		default:
			a.setStatus("No more tracks to load")
		}
		return nil
	case '+', '=':
		a.stepInterval(1)
		return nil
	case '-', '_':
		a.stepInterval(-1)
		return nil
	}
	return event
}

func (a *App) tracksBusy() bool {
	busy, _ := a.controls.Busy()
	return busy
}

func (a *App) stepInterval(steps int) {
	next := feed.StepInterval(a.controls.Interval(), steps)
	if err := a.controls.SetInterval(next); err != nil {
		a.setStatus(err.Error())
		return
	}
	a.setStatus(fmt.Sprintf("Auto-refresh every %s", next))
}

// Run starts the TUI and consumes engine events until the user quits or
// ctx is cancelled
func (a *App) Run(ctx context.Context, events <-chan feed.Event) error {
	// Create cancellable context
	ctx, a.cancelFunc = context.WithCancel(ctx)
	a.ctx = ctx

	// Start update goroutine
	go a.handleEvents(ctx, events)

	// Run application
	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// handleEvents applies engine events to the view state. A ticker redraws
// periodically so relative played times stay current.
func (a *App) handleEvents(ctx context.Context, events <-chan feed.Event) {
	refreshRate := a.config.RefreshRate
	if refreshRate <= 0 {
		refreshRate = DefaultConfig().RefreshRate
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case e := <-events:
			a.applyEvent(e, time.Now())
			a.refresh()
		case <-ticker.C:
			a.refresh()
		}
	}
}

// applyEvent updates view state from one engine event
func (a *App) applyEvent(e feed.Event, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev := e.(type) {
	case feed.SnapshotChanged[feed.TrackEntry]:
		a.trackRows = ev.Items
		a.trackPage = ev.CurrentPage
		a.trackTotal = ev.TotalPages
		a.lastUpdated = now
		a.statusText = fmt.Sprintf("Loaded %d tracks", len(ev.Items))
	case feed.SnapshotChanged[feed.ArtistEntry]:
		a.artistRows = ev.Items
		a.lastUpdated = now
	case feed.NowPlayingChanged:
		a.current = ev.Entry
	case feed.FetchFailed:
		a.statusText = fmt.Sprintf("[red]%s fetch failed:[-] %s", ev.Series, tview.Escape(ev.Err.Error()))
	case feed.ArtworkResolved, feed.TickSkipped:
		// Artwork is read through Controls.ArtworkFor at draw time.
	}
}

// setStatus updates the status line. Key handlers run on the UI
// goroutine, so it renders directly.
func (a *App) setStatus(text string) {
	a.mu.Lock()
	a.statusText = text
	a.mu.Unlock()
	a.render(time.Now())
}

// refresh redraws all UI components on the UI goroutine
func (a *App) refresh() {
	a.app.QueueUpdateDraw(func() {
		a.render(time.Now())
	})
}

// render writes the current state into the widgets
func (a *App) render(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nowPlaying.SetText(nowPlayingText(a.current))
	a.renderTracks(now)
	a.renderArtists()

	updated := "never"
	if !a.lastUpdated.IsZero() {
		updated = humanize.RelTime(a.lastUpdated, now, "ago", "from now")
	}
	interval := ""
	if a.controls != nil {
		interval = fmt.Sprintf("  every %s", a.controls.Interval())
	}
	a.status.SetText(fmt.Sprintf("%s  [gray]page %d/%d  updated %s%s  r:refresh m:more +/-:interval q:quit[-]",
		a.statusText, a.trackPage, a.trackTotal, updated, interval))
}

func (a *App) renderTracks(now time.Time) {
	a.tracks.Clear()
	setHeader(a.tracks, "Title", "Artist", "Album", "Played")

	for i, t := range a.trackRows {
		row := i + 1
		color := tcell.ColorWhite
		if t.LiveNow {
			color = tcell.ColorGreen
		}
		a.tracks.SetCell(row, 0, tview.NewTableCell(fitColumn(t.Title, titleWidth)).SetTextColor(color))
		a.tracks.SetCell(row, 1, tview.NewTableCell(fitColumn(t.Artist, artistWidth)).SetTextColor(tcell.ColorYellow))
		a.tracks.SetCell(row, 2, tview.NewTableCell(fitColumn(t.Album, albumWidth)).SetTextColor(tcell.ColorGray))
		a.tracks.SetCell(row, 3, tview.NewTableCell(fitColumn(playedText(t, now), playedWidth)).SetTextColor(color))
	}
}

func (a *App) renderArtists() {
	a.artists.Clear()
	setHeader(a.artists, "#", "Artist", "Plays", "Art")

	for i, artist := range a.artistRows {
		row := i + 1
		artwork := artist.ArtworkURL
		if a.controls != nil {
			artwork = a.controls.ArtworkFor(artist)
		}
		a.artists.SetCell(row, 0, tview.NewTableCell(strconv.Itoa(row)).SetTextColor(tcell.ColorGray))
		a.artists.SetCell(row, 1, tview.NewTableCell(fitColumn(artist.Name, nameWidth)).SetTextColor(tcell.ColorWhite))
		a.artists.SetCell(row, 2, tview.NewTableCell(fitColumn(humanize.Comma(int64(artist.PlayCount)), countWidth)).
			SetAlign(tview.AlignRight))
		a.artists.SetCell(row, 3, tview.NewTableCell(artworkMark(artwork)))
	}
}

func setHeader(table *tview.Table, titles ...string) {
	for col, title := range titles {
		table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorAqua).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// nowPlayingText renders the now-playing bar
func nowPlayingText(entry *feed.TrackEntry) string {
	if entry == nil {
		return "[gray]Nothing playing[-]"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[green]▶[-] [white::b]%s[-:-:-]\n", tview.Escape(entry.Title)))
	sb.WriteString(fmt.Sprintf("  [yellow]%s[-]", tview.Escape(entry.Artist)))
	if entry.Album != "" {
		sb.WriteString(fmt.Sprintf(" [gray]· %s[-]", tview.Escape(entry.Album)))
	}
	return sb.String()
}

// playedText renders when a track was played relative to now
func playedText(t feed.TrackEntry, now time.Time) string {
	if t.LiveNow {
		return "Now Playing"
	}
	if t.PlayedAt == nil {
		return "-"
	}
	return humanize.RelTime(*t.PlayedAt, now, "ago", "from now")
}

// fitColumn truncates s to width display cells and escapes it for tview
func fitColumn(s string, width int) string {
	return tview.Escape(runewidth.Truncate(s, width, "…"))
}

// artworkMark shows whether an artist has artwork to display
func artworkMark(url string) string {
	if url == "" {
		return "[gray]·[-]"
	}
	return "[green]■[-]"
}
