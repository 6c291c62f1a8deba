package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/callboard/backend/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingestion metrics
	LoadsTotal      int64
	LoadErrorsTotal int64
	rowsNormalized  map[types.SourceType]int64
	rowsRejected    map[types.SourceType]int64
	rowErrors       map[types.SourceType]int64
	lastLoadAt      time.Time
	lastLoadTime    time.Duration

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			rowsNormalized:       make(map[types.SourceType]int64),
			rowsRejected:         make(map[types.SourceType]int64),
			rowErrors:            make(map[types.SourceType]int64),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordLoad records one completed full load cycle
func (m *Metrics) RecordLoad(duration time.Duration) {
	m.mu.Lock()
	m.LoadsTotal++
	m.lastLoadAt = time.Now()
	m.lastLoadTime = duration
	m.mu.Unlock()
}

// RecordLoadError increments the per-source load failure counter
func (m *Metrics) RecordLoadError() {
	m.mu.Lock()
	m.LoadErrorsTotal++
	m.mu.Unlock()
}

// RecordRowNormalized counts a row accepted into the store
func (m *Metrics) RecordRowNormalized(src types.SourceType) {
	m.mu.Lock()
	m.rowsNormalized[src]++
	m.mu.Unlock()
}

// RecordRowRejected counts a row dropped by the validity predicate
func (m *Metrics) RecordRowRejected(src types.SourceType) {
	m.mu.Lock()
	m.rowsRejected[src]++
	m.mu.Unlock()
}

// RecordRowError counts a row skipped after a normalization panic
func (m *Metrics) RecordRowError(src types.SourceType) {
	m.mu.Lock()
	m.rowErrors[src]++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// RowCounts returns normalized/rejected/errored counters for one source
func (m *Metrics) RowCounts(src types.SourceType) (normalized, rejected, errored int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowsNormalized[src], m.rowsRejected[src], m.rowErrors[src]
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value int64, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}
			w.Write([]byte(name + labelStr + " " + strconv.FormatInt(value, 10) + "\n"))
		}

		write("callboard_loads_total", m.LoadsTotal)
		write("callboard_load_errors_total", m.LoadErrorsTotal)
		for _, src := range types.AllSources {
			write("callboard_rows_normalized_total", m.rowsNormalized[src], "source", string(src))
			write("callboard_rows_rejected_total", m.rowsRejected[src], "source", string(src))
			write("callboard_row_errors_total", m.rowErrors[src], "source", string(src))
		}
		write("callboard_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("callboard_websocket_active_connections", m.activeConnections)
		for endpoint, byStatus := range m.httpRequestsTotal {
			for status, count := range byStatus {
				write("callboard_http_requests_total", count,
					"endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
		write("callboard_uptime_seconds", int64(time.Since(m.startTime).Seconds()))
	}
}
