package logentry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/infrastructure/monitoring"
)

// Sentinel errors for deterministic HTTP mapping.
var (
	ErrEmptyMessage = errors.New("message is required")
	ErrUnknownLevel = errors.New("unknown level")
)

// Service is the ingest gateway and snapshot reader in front of the
// ring store and the broadcast hub.
type Service struct {
	ring      *RingStore
	hub       *Hub
	validator *validator.Validate
	logger    *zap.Logger
	mailbox   int
}

// NewService wires a Service. mailbox is the per-stream buffer size.
func NewService(ring *RingStore, hub *Hub, logger *zap.Logger, mailbox int) *Service {
	if mailbox <= 0 {
		mailbox = DefaultMailbox
	}
	return &Service{
		ring:      ring,
		hub:       hub,
		validator: validator.New(),
		logger:    logger,
		mailbox:   mailbox,
	}
}

// Submit validates one candidate entry, commits it to the store, then
// publishes the stored entry to live streams. Publish happens only
// after the commit returns, so a streamed entry is always visible to a
// concurrent snapshot. Rejected entries mutate nothing.
func (s *Service) Submit(req SubmitRequest, userID string) (Entry, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		monitoring.CountRejected()
		return Entry{}, ErrEmptyMessage
	}
	if err := s.validator.Struct(req); err != nil {
		monitoring.CountRejected()
		return Entry{}, err
	}
	level, err := ParseLevel(req.Level)
	if err != nil {
		monitoring.CountRejected()
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLevel, req.Level)
	}

	stored := s.ring.Append(Entry{
		ID:        strings.TrimSpace(req.ID),
		Timestamp: req.Timestamp,
		Level:     level.String(),
		Message:   req.Message,
		UserID:    userID,
		DeviceID:  req.DeviceID,
		Source:    req.Source,
		Metadata:  req.Metadata,
		Tags:      req.Tags,
		File:      req.File,
		Function:  req.Function,
		Line:      req.Line,
	})
	s.hub.Publish(stored)
	monitoring.CountIngested(stored.Level, stored.Source)
	return stored, nil
}

// Snapshot returns all retained entries oldest to newest.
func (s *Service) Snapshot() []Entry {
	return s.ring.Snapshot()
}

// Clear empties the store. Live streams stay attached and the sequence
// counter keeps counting.
func (s *Service) Clear() {
	s.ring.Clear()
	s.logger.Info("log store cleared")
}

// Follow registers a live subscriber and, when asked, takes a snapshot
// after registration. Registration-before-snapshot means no entry can
// be missing from both: anything committed before the snapshot is in
// it, anything committed after registration lands in the mailbox.
// Callers reconcile the overlap window by sequence.
func (s *Service) Follow(withSnapshot bool) (*Subscriber, []Entry) {
	sub := s.hub.Subscribe(s.mailbox)
	monitoring.SetSubscribers(s.hub.Len())
	var snapshot []Entry
	if withSnapshot {
		snapshot = s.ring.Snapshot()
	}
	return sub, snapshot
}

// Unfollow releases a subscriber's mailbox.
func (s *Service) Unfollow(sub *Subscriber) {
	if sub == nil {
		return
	}
	if n := sub.Dropped(); n > 0 {
		s.logger.Warn("stream subscriber lost entries", zap.Int64("dropped", n))
		monitoring.CountStreamDrops(n)
	}
	s.hub.Unsubscribe(sub)
	monitoring.SetSubscribers(s.hub.Len())
}

// Stats describes the store and stream state. Aggregates are derived
// from a snapshot on demand; the core keeps no running tallies that
// could drift from the ring contents.
type Stats struct {
	Total        int            `json:"total"`
	Capacity     int            `json:"capacity"`
	LastSequence int64          `json:"lastSequence"`
	Levels       map[string]int `json:"levels"`
	Sources      []string       `json:"sources"`
	Tags         []string       `json:"tags"`
	Stream       HubStats       `json:"stream"`
}

// Stats computes aggregates over the current snapshot.
func (s *Service) Stats() Stats {
	entries := s.ring.Snapshot()
	levels := make(map[string]int, len(levelNames))
	for _, l := range Levels() {
		levels[l.String()] = 0
	}
	sources := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, e := range entries {
		levels[e.Level]++
		if e.Source != "" {
			sources[e.Source] = struct{}{}
		}
		for _, t := range e.Tags {
			tags[t] = struct{}{}
		}
	}
	return Stats{
		Total:        len(entries),
		Capacity:     s.ring.Capacity(),
		LastSequence: s.ring.LastSequence(),
		Levels:       levels,
		Sources:      sortedKeys(sources),
		Tags:         sortedKeys(tags),
		Stream:       s.hub.Stats(),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
