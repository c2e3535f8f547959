package playback

import (
	"context"
	"time"
)

// EventKind discriminates player events.
type EventKind int

const (
	// EventAnnounce fires when playback enters a new interval. The
	// interval's label and cue feed the text-to-speech layer.
	EventAnnounce EventKind = iota
	// EventFinished fires once, when elapsed time reaches the end of
	// the timeline. The events channel is closed right after.
	EventFinished
)

// Event is emitted on the player's events channel.
type Event struct {
	Kind     EventKind
	Interval Interval
}

// Snapshot is a point-in-time view of player state.
type Snapshot struct {
	Elapsed time.Duration
	Index   int // -1 when no interval is active
	Paused  bool
	Done    bool
	Overall float64
	Within  float64
}

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdSeek
	cmdStop
	cmdSnapshot
)

type command struct {
	kind  cmdKind
	to    time.Duration
	reply chan Snapshot
}

// Player drives a countdown over a flattened timeline. A single
// goroutine owns all state; pause, resume, and seek arrive over a
// command channel so user actions can never race a tick. Position is
// recomputed from the monotonic clock on every tick instead of
// accumulating fixed increments, so a late tick cannot drift it.
type Player struct {
	tl     Timeline
	tick   time.Duration
	cmds   chan command
	events chan Event
	done   chan struct{}
}

// NewPlayer builds a player over the timeline. tick is the re-check
// period; 250ms reads well for a progress bar.
func NewPlayer(tl Timeline, tick time.Duration) *Player {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	return &Player{
		tl:   tl,
		tick: tick,
		cmds: make(chan command),
		// Sized so a straight play-through fits without a listener
		// keeping pace. Sends never block: overflow drops the event.
		events: make(chan Event, len(tl.Intervals)+2),
		done:   make(chan struct{}),
	}
}

// Events delivers announcements and the final finish event. The channel
// is closed when playback ends for any reason. A consumer that stops
// draining misses events rather than stalling playback, so the close is
// the authoritative end-of-playback signal.
func (p *Player) Events() <-chan Event {
	return p.events
}

// Done is closed when playback has ended.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Start begins playback from zero and returns immediately. Cancelling
// ctx stops playback.
func (p *Player) Start(ctx context.Context) {
	go p.run(ctx)
}

// Pause freezes the countdown. No-op when already paused or finished.
func (p *Player) Pause() { p.send(command{kind: cmdPause}) }

// Resume continues a paused countdown.
func (p *Player) Resume() { p.send(command{kind: cmdResume}) }

// Seek jumps to the given elapsed position, clamped to the timeline.
// Seeking to or past the end finishes playback.
func (p *Player) Seek(to time.Duration) { p.send(command{kind: cmdSeek, to: to}) }

// Stop ends playback without a finish event.
func (p *Player) Stop() { p.send(command{kind: cmdStop}) }

// Position reports current state. After playback has ended it returns
// a terminal snapshot.
func (p *Player) Position() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case p.cmds <- command{kind: cmdSnapshot, reply: reply}:
		return <-reply
	case <-p.done:
		return Snapshot{Elapsed: p.tl.Total, Index: -1, Done: true, Overall: 1, Within: 1}
	}
}

func (p *Player) send(c command) {
	select {
	case p.cmds <- c:
	case <-p.done:
	}
}

func (p *Player) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.events)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	var (
		started = time.Now()
		offset  time.Duration
		paused  bool
		lastIdx = -1
	)

	elapsed := func() time.Duration {
		if paused {
			return offset
		}
		return offset + time.Since(started)
	}

	// emit never blocks the run loop: when the consumer stops draining,
	// stale events are dropped. The channel close remains the end signal.
	emit := func(ev Event) {
		select {
		case p.events <- ev:
		default:
		}
	}

	// advance emits announces for a newly entered interval and reports
	// whether the timeline is exhausted.
	advance := func() bool {
		e := elapsed()
		if e >= p.tl.Total {
			emit(Event{Kind: EventFinished})
			return true
		}
		if iv, ok := p.tl.At(e); ok && iv.Index != lastIdx {
			lastIdx = iv.Index
			emit(Event{Kind: EventAnnounce, Interval: iv})
		}
		return false
	}

	if advance() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if paused {
				continue
			}
			if advance() {
				return
			}

		case c := <-p.cmds:
			switch c.kind {
			case cmdPause:
				if !paused {
					offset = elapsed()
					paused = true
				}

			case cmdResume:
				if paused {
					started = time.Now()
					paused = false
					if advance() {
						return
					}
				}

			case cmdSeek:
				to := c.to
				if to < 0 {
					to = 0
				}
				offset = to
				started = time.Now()
				lastIdx = -1 // re-announce wherever we land
				if advance() {
					return
				}

			case cmdStop:
				return

			case cmdSnapshot:
				e := elapsed()
				overall, within := p.tl.Progress(e)
				idx := -1
				if iv, ok := p.tl.At(e); ok {
					idx = iv.Index
				}
				c.reply <- Snapshot{
					Elapsed: e,
					Index:   idx,
					Paused:  paused,
					Overall: overall,
					Within:  within,
				}
			}
		}
	}
}
