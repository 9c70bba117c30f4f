// Package observability aggregates live counters and process-level metrics
// for the debug endpoint and the monitoring worker.
package observability

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot aggregates every metric exposed on the debug endpoint.
type Snapshot struct {
	Connections int    `json:"connections"`
	OnlineUsers int    `json:"online_users"`
	Rooms       int    `json:"rooms"`
	Goroutines  int    `json:"goroutines"`
	NumGC       uint32 `json:"num_gc"`

	EventsDispatched     uint64 `json:"events_dispatched"`
	EventsRejected       uint64 `json:"events_rejected"`
	EventsDropped        uint64 `json:"events_dropped"`
	NotificationsStored  uint64 `json:"notifications_stored"`
	NotificationFailures uint64 `json:"notification_failures"`

	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	PidStatus  string  `json:"pid_status"`

	At time.Time `json:"at"`
}

// GaugeProvider reports the registry's live gauges (connections, users, rooms).
type GaugeProvider func() (connections, users, rooms int)

// Stats is safe for concurrent use; counters are atomic, process metrics are
// refreshed by the monitoring worker.
type Stats struct {
	eventsDispatched     atomic.Uint64
	eventsRejected       atomic.Uint64
	eventsDropped        atomic.Uint64
	notificationsStored  atomic.Uint64
	notificationFailures atomic.Uint64

	mu         sync.RWMutex
	gauges     GaugeProvider
	rssBytes   uint64
	cpuPercent float64
	pidStatus  string
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) SetGaugeProvider(p GaugeProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges = p
}

func (s *Stats) IncrDispatched()           { s.eventsDispatched.Add(1) }
func (s *Stats) IncrRejected()             { s.eventsRejected.Add(1) }
func (s *Stats) IncrDropped()              { s.eventsDropped.Add(1) }
func (s *Stats) IncrNotificationsStored()  { s.notificationsStored.Add(1) }
func (s *Stats) IncrNotificationFailures() { s.notificationFailures.Add(1) }

// SetProcessStats is called by the monitoring worker with gopsutil readings.
func (s *Stats) SetProcessStats(rss uint64, cpu float64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rssBytes = rss
	s.cpuPercent = cpu
	s.pidStatus = status
}

func (s *Stats) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.mu.RLock()
	gauges := s.gauges
	snap := Snapshot{
		Goroutines:           runtime.NumGoroutine(),
		NumGC:                mem.NumGC,
		EventsDispatched:     s.eventsDispatched.Load(),
		EventsRejected:       s.eventsRejected.Load(),
		EventsDropped:        s.eventsDropped.Load(),
		NotificationsStored:  s.notificationsStored.Load(),
		NotificationFailures: s.notificationFailures.Load(),
		RSSBytes:             s.rssBytes,
		CPUPercent:           s.cpuPercent,
		PidStatus:            s.pidStatus,
		At:                   time.Now().UTC(),
	}
	s.mu.RUnlock()

	if gauges != nil {
		snap.Connections, snap.OnlineUsers, snap.Rooms = gauges()
	}
	return snap
}
