// Package sse streams manifest and catalog changes to HTTP clients as
// Server-Sent Events.
//
// Each manifest change is sent at once as manifest.created, .updated or
// .deleted. Catalog changes are coalesced: the first change opens a window
// and a single catalog.updated listing every manifest touched during it is
// sent when the window closes. Clients may restrict the stream to one
// corpus folder and resume after a reconnect through Last-Event-ID.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/cdmbridge/internal/corpuspath"
)

const (
	// EventCatalogUpdated closes a coalescing window.
	EventCatalogUpdated = "catalog.updated"

	manifestEventPrefix = "manifest."
	historySize         = 128
	clientBuffer        = 64
	retryMillis         = 3000
)

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	// Path is the corpus path the event concerns. Events without one reach
	// every subscriber regardless of its folder.
	Path string `json:"-"`
	Data any    `json:"data"`
}

// ManifestChange is the payload of manifest.* events.
type ManifestChange struct {
	Path   string `json:"path"`
	Folder string `json:"folder"`
}

// CatalogUpdate is the payload of catalog.updated. Changed lists the
// manifests touched during the window in order of first change.
type CatalogUpdate struct {
	Changed []string `json:"changed"`
}

type manifestChange struct {
	kind string
	path string
}

type subscription struct {
	ch     chan []byte
	folder string
	after  uint64
}

// frame is an encoded event kept for replay.
type frame struct {
	id   uint64
	path string
	raw  []byte
}

// Broker fans events out to SSE clients. One goroutine owns the client set,
// the replay history and the coalescing window; public methods talk to it
// over channels.
type Broker struct {
	window    time.Duration
	keepAlive time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan manifestChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker whose catalog.updated events are coalesced
// over window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = 2 * time.Second
	}
	b := &Broker{
		window:        window,
		keepAlive:     15 * time.Second,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan manifestChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	history := make([]frame, 0, historySize)
	var seq uint64

	var pending []string
	seen := make(map[string]struct{})
	var timer *time.Timer
	var flush <-chan time.Time

	emit := func(e Event) {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			return
		}
		seq++
		f := frame{
			id:   seq,
			path: e.Path,
			raw:  []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, e.Type, payload)),
		}
		if len(history) == historySize {
			copy(history, history[1:])
			history = history[:historySize-1]
		}
		history = append(history, f)

		for ch, folder := range clients {
			if !inFolder(folder, f.path) {
				continue
			}
			select {
			case ch <- f.raw:
			default:
				// Slow client; it can resume from Last-Event-ID.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.folder
			if sub.after == 0 {
				continue
			}
			for _, f := range history {
				if f.id <= sub.after || !inFolder(sub.folder, f.path) {
					continue
				}
				select {
				case sub.ch <- f.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case e := <-b.publishCh:
			emit(e)

		case c := <-b.changeCh:
			if c.path != "" {
				switch c.kind {
				case "created", "updated", "deleted":
					emit(Event{
						Type: manifestEventPrefix + c.kind,
						Path: c.path,
						Data: ManifestChange{Path: c.path, Folder: corpuspath.Folder(c.path)},
					})
				}
				if _, ok := seen[c.path]; !ok {
					seen[c.path] = struct{}{}
					pending = append(pending, c.path)
				}
			}
			if flush == nil {
				timer = time.NewTimer(b.window)
				flush = timer.C
			}

		case <-flush:
			changed := pending
			if changed == nil {
				changed = []string{}
			}
			emit(Event{Type: EventCatalogUpdated, Data: CatalogUpdate{Changed: changed}})
			pending = nil
			seen = make(map[string]struct{})
			timer, flush = nil, nil

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// inFolder reports whether an event about path is visible to a subscriber
// of folder. An empty folder sees everything.
func inFolder(folder, path string) bool {
	return folder == "" || path == "" || strings.HasPrefix(path, folder)
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that sees events under folder, or all events when
// folder is empty. Buffered events with an id above lastID are replayed
// first; a zero lastID replays nothing.
func (b *Broker) Subscribe(folder string, lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- subscription{ch: ch, folder: folder, after: lastID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to every matching client.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- e:
	case <-b.stopped:
	}
}

// PublishManifestEvent announces a manifest change and adds it to the
// current catalog window. An empty path only opens the window.
func (b *Broker) PublishManifestEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- manifestChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client. The folder query parameter
// restricts the stream to a corpus folder and a Last-Event-ID header
// resumes it. A comment line is sent every keep-alive interval.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder != "" {
		folder = corpuspath.Normalize(folder)
		if !strings.HasSuffix(folder, "/") {
			folder += "/"
		}
	}
	lastID := cast.ToUint64(r.Header.Get("Last-Event-ID"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe(folder, lastID)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
