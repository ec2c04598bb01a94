// Package eventbus implements the library's datagram publish channel: a
// fan-out broadcaster of CBOR-encoded messages with no persistence and no
// replay. A subscriber whose buffer is full misses that datagram rather
// than blocking publishers; it stays subscribed for later ones.
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// EventKind names the three events the core ever publishes.
type EventKind string

const (
	LibraryRescanFinished    EventKind = "LibraryRescanFinished"
	LibraryAnalysisFinished  EventKind = "LibraryAnalysisFinished"
	LibraryReclusterFinished EventKind = "LibraryReclusterFinished"
)

// maxDatagram is the per-subscriber buffer size: one maximum-sized datagram.
const maxDatagram = 1024

// Event is the CBOR-serialized message shape published for every kind.
// Payload is kind-specific (e.g. a rescan Summary, a song count, a
// recluster k) and is itself CBOR-encoded into Detail so that EventKind can
// be decoded before the payload's shape is known.
type Event struct {
	Kind   EventKind       `cbor:"kind"`
	Detail cbor.RawMessage `cbor:"detail"`
}

// Bus is a process-local CBOR event bus. The zero value is not usable; use
// New.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan []byte
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan []byte)}
}

// Subscribe registers a new receiver and returns its channel plus an
// Unsubscribe func. The channel carries raw CBOR-encoded Event bytes;
// callers decode with cbor.Unmarshal.
func (b *Bus) Subscribe() (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan []byte, 1)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish encodes kind+detail as CBOR and fans it out. A subscriber whose
// buffer is already full (one pending datagram) is skipped: the bus
// promises no persistence and no replay, only best-effort delivery.
func (b *Bus) Publish(kind EventKind, detail any) error {
	encodedDetail, err := cbor.Marshal(detail)
	if err != nil {
		return err
	}

	payload, err := cbor.Marshal(Event{Kind: kind, Detail: encodedDetail})
	if err != nil {
		return err
	}

	if len(payload) > maxDatagram {
		slog.Warn("eventbus: datagram exceeds max size, publishing anyway", "kind", kind, "size", len(payload))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- payload:
		default:
			slog.Debug("eventbus: subscriber buffer full, dropping datagram", "subscriber", id, "kind", kind)
		}
	}

	return nil
}
