package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory counters for HTTP traffic, video uploads,
// encoding attachments, and login outcomes. It is safe for concurrent use.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	uploads         uint64
	probeFailures   uint64
	encodings       map[string]uint64
	loginOutcomes   map[string]uint64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can record immediately without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		encodings:       make(map[string]uint64),
		loginOutcomes:   make(map[string]uint64),
	}
}

// Default returns the shared Recorder used when no custom instance is wired.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest accumulates request count and cumulative duration keyed by
// method, normalized path, and status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: strconv.Itoa(status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveUpload counts a stored video upload.
func (r *Recorder) ObserveUpload() {
	r.mu.Lock()
	r.uploads++
	r.mu.Unlock()
}

// ObserveProbeFailure counts an upload whose duration probe failed.
func (r *Recorder) ObserveProbeFailure() {
	r.mu.Lock()
	r.probeFailures++
	r.mu.Unlock()
}

// ObserveEncoding counts an attached rendition keyed by format label.
func (r *Recorder) ObserveEncoding(format string) {
	normalized := strings.TrimSpace(format)
	if normalized == "" {
		normalized = "unknown"
	}
	r.mu.Lock()
	r.encodings[normalized]++
	r.mu.Unlock()
}

// ObserveLogin counts a login attempt by outcome ("success", "rejected",
// "unknown_user").
func (r *Recorder) ObserveLogin(outcome string) {
	normalized := strings.ToLower(strings.TrimSpace(outcome))
	if normalized == "" {
		normalized = "unknown"
	}
	r.mu.Lock()
	r.loginOutcomes[normalized]++
	r.mu.Unlock()
}

// Reset clears all counters. It is intended for test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.uploads = 0
	r.probeFailures = 0
	r.encodings = make(map[string]uint64)
	r.loginOutcomes = make(map[string]uint64)
}

// Handler exposes the Recorder as an http.Handler writing Prometheus text
// exposition data.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the metrics in Prometheus text format. Label sets are sorted
// so scrapes and tests see stable output.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	encodings := sortedKeys(r.encodings)
	logins := sortedKeys(r.loginOutcomes)

	fmt.Fprintln(w, "# HELP vidshare_http_requests_total Total number of HTTP requests processed by the API")
	fmt.Fprintln(w, "# TYPE vidshare_http_requests_total counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "vidshare_http_requests_total{method=%q,path=%q,status=%q} %d\n", label.method, label.path, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP vidshare_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE vidshare_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "vidshare_http_request_duration_seconds_sum{method=%q,path=%q,status=%q} %f\n", label.method, label.path, label.status, r.requestDuration[label].Seconds())
	}

	fmt.Fprintln(w, "# HELP vidshare_uploads_total Total video uploads stored")
	fmt.Fprintln(w, "# TYPE vidshare_uploads_total counter")
	fmt.Fprintf(w, "vidshare_uploads_total %d\n", r.uploads)

	fmt.Fprintln(w, "# HELP vidshare_probe_failures_total Uploads whose duration probe failed")
	fmt.Fprintln(w, "# TYPE vidshare_probe_failures_total counter")
	fmt.Fprintf(w, "vidshare_probe_failures_total %d\n", r.probeFailures)

	fmt.Fprintln(w, "# HELP vidshare_encodings_total Encoding attachments by format")
	fmt.Fprintln(w, "# TYPE vidshare_encodings_total counter")
	for _, format := range encodings {
		fmt.Fprintf(w, "vidshare_encodings_total{format=%q} %d\n", format, r.encodings[format])
	}

	fmt.Fprintln(w, "# HELP vidshare_logins_total Login attempts by outcome")
	fmt.Fprintln(w, "# TYPE vidshare_logins_total counter")
	for _, outcome := range logins {
		fmt.Fprintf(w, "vidshare_logins_total{outcome=%q} %d\n", outcome, r.loginOutcomes[outcome])
	}
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// normalizePath collapses numeric id segments so the label cardinality stays
// bounded regardless of how many resources exist.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if isNumeric(part) {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func isNumeric(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
