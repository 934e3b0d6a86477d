package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	HeadlinesIngested int64
	HeadlinesSkipped  int64
	GroupsFormed      int64
	GroupsRejected    int64
	ImageFetches      int64
	ImagesFound       int64
	ImagesFailed      int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddHeadlinesIngested(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeadlinesIngested += int64(n)
}

func (m *Metrics) IncrementHeadlinesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeadlinesSkipped++
}

func (m *Metrics) IncrementGroupsFormed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GroupsFormed++
}

func (m *Metrics) IncrementGroupsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GroupsRejected++
}

func (m *Metrics) IncrementImageFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImageFetches++
}

func (m *Metrics) IncrementImagesFound() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesFound++
}

func (m *Metrics) IncrementImagesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImagesFailed++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"headlines_ingested":         m.HeadlinesIngested,
		"headlines_skipped":          m.HeadlinesSkipped,
		"groups_formed":              m.GroupsFormed,
		"groups_rejected":            m.GroupsRejected,
		"image_fetches":              m.ImageFetches,
		"images_found":               m.ImagesFound,
		"images_failed":              m.ImagesFailed,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
