// Package history owns the bounded, newest-first log of received
// transcripts, keeps it durable across restarts, and mediates
// copy-to-clipboard with its transient feedback state.
package history

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"jargon/bus"
	"jargon/clipboard"
	"jargon/log"
	"jargon/task"
)

const (
	// StorageKey is the persisted record holding the serialized log.
	StorageKey = "jargon:transcriptHistory:v1"

	// Cap bounds the log length; on overflow the oldest entries drop.
	Cap = 200

	// copyFeedbackTTL is how long the copied indicator stays visible.
	copyFeedbackTTL = 1200 * time.Millisecond
)

// Entry is one received transcript. Entries are immutable once created.
type Entry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// Blobs is the slice of the key-value store the manager needs.
type Blobs interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type Manager struct {
	mu          sync.Mutex
	blobs       Blobs
	entries     []Entry
	copiedID    string
	feedback    task.Delayed
	feedbackGen uint64
	feedbackTTL time.Duration
	unsubscribe func()
	closed      bool
	appended    int

	copyText func(string) error
	now      func() time.Time
	newID    func() string

	onChange   func([]Entry)
	onFeedback func(copiedID string)
}

// NewManager loads the persisted log and returns a manager backed by
// the given blob store. Loading never fails: a missing, corrupt, or
// partially malformed record degrades to whatever entries were
// well-formed.
func NewManager(blobs Blobs) *Manager {
	m := &Manager{
		blobs:       blobs,
		feedbackTTL: copyFeedbackTTL,
		copyText:    clipboard.Copy,
		now:         time.Now,
		newID:       generateID,
	}
	m.entries = load(blobs)
	return m
}

func load(blobs Blobs) []Entry {
	blob, ok := blobs.Get(StorageKey)
	if !ok {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		log.Warnf("history: discarding corrupt stored log: %v", err)
		return nil
	}
	entries := make([]Entry, 0, min(len(raw), Cap))
	for _, rec := range raw {
		var partial struct {
			ID   *string  `json:"id"`
			Text *string  `json:"text"`
			TS   *float64 `json:"ts"`
		}
		// Malformed records are dropped individually; one bad record
		// must not throw away the rest of the log.
		if err := json.Unmarshal(rec, &partial); err != nil {
			continue
		}
		if partial.ID == nil || partial.Text == nil || partial.TS == nil {
			continue
		}
		entries = append(entries, Entry{ID: *partial.ID, Text: *partial.Text, TS: int64(*partial.TS)})
		if len(entries) == Cap {
			break
		}
	}
	return entries
}

// Attach subscribes the manager to the transcript event. Close undoes
// the subscription.
func (m *Manager) Attach(b *bus.Bus) {
	m.mu.Lock()
	attached := m.closed || m.unsubscribe != nil
	m.mu.Unlock()
	if attached {
		return
	}

	unsub := b.Subscribe(bus.EventTranscript, func(p bus.Payload) {
		m.Append(p.Text)
	})
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsub()
		return
	}
	m.unsubscribe = unsub
	m.mu.Unlock()
}

// Entries returns a snapshot of the log, newest first.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Len returns the current log length.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Appended returns how many entries this session added.
func (m *Manager) Appended() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appended
}

// Append prepends a new entry for text and persists the log. The text
// is trimmed first; appending whitespace leaves the log unchanged. The
// in-memory update happens before the write, and a failed write is
// logged while the in-memory log stays authoritative.
func (m *Manager) Append(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	entry := Entry{ID: m.newID(), Text: text, TS: m.now().UnixMilli()}
	m.entries = append([]Entry{entry}, m.entries...)
	if len(m.entries) > Cap {
		m.entries = m.entries[:Cap]
	}
	m.appended++
	snapshot := append([]Entry(nil), m.entries...)
	notify := m.onChange
	m.mu.Unlock()

	m.persist(snapshot)
	if notify != nil {
		notify(snapshot)
	}
}

func (m *Manager) persist(entries []Entry) {
	blob, err := json.Marshal(entries)
	if err != nil {
		log.Warnf("history: encode failed: %v", err)
		return
	}
	if err := m.blobs.Set(StorageKey, string(blob)); err != nil {
		log.Warnf("history: persist failed: %v", err)
	}
}

// Copy places text on the clipboard and reports success. On success
// the entry becomes the recently-copied one and a delayed clear is
// armed, superseding any pending clear.
func (m *Manager) Copy(entryID, text string) bool {
	if err := m.copyText(text); err != nil {
		log.Warnf("history: copy failed: %v", err)
		return false
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return true
	}
	m.copiedID = entryID
	m.feedbackGen++
	gen := m.feedbackGen
	notify := m.onFeedback
	ttl := m.feedbackTTL
	m.mu.Unlock()

	m.feedback.Schedule(ttl, func() { m.clearFeedback(gen) })
	if notify != nil {
		notify(entryID)
	}
	return true
}

// clearFeedback resets the indicator armed by the copy of generation
// gen. The timer validates its own sequence, but only up to the point
// it leaves the task lock; a copy landing right after that window
// would otherwise get its fresh indicator wiped by the stale clear, so
// the generation is checked again here under the manager's lock.
func (m *Manager) clearFeedback(gen uint64) {
	m.mu.Lock()
	if gen != m.feedbackGen || m.copiedID == "" {
		m.mu.Unlock()
		return
	}
	m.copiedID = ""
	notify := m.onFeedback
	m.mu.Unlock()

	if notify != nil {
		notify("")
	}
}

// CopiedID returns the id of the recently-copied entry, or "" when the
// feedback state is idle.
func (m *Manager) CopiedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copiedID
}

// OnChange registers the log-changed callback. Set before Attach.
func (m *Manager) OnChange(fn func([]Entry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// OnFeedback registers the copied-indicator callback. The empty id
// means the indicator cleared.
func (m *Manager) OnFeedback(fn func(copiedID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFeedback = fn
}

// Close unsubscribes from the transcript event and cancels any pending
// feedback clear. Safe to call more than once; no append lands after
// Close returns.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.feedbackGen++ // neutralize any clear already past its timer check
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	m.feedback.Cancel()
}

func generateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// Entropy exhaustion; time plus a weak nonce keeps ids unique
		// enough for list keys.
		return fmt.Sprintf("%d-%06d", time.Now().UnixMilli(), rand.IntN(1_000_000))
	}
	return id.String()
}
