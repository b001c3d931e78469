package analytics

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	startupEventName = "MCP_STARTUP"
	toolsEventName   = "MCP_TOOL_USED"
	importEventName  = "MCP_CSV_IMPORT"
)

// TrackEvent is one usage event as posted to the analytics endpoint.
type TrackEvent struct {
	Event      string         `json:"event"`
	InsertID   string         `json:"insertId"`
	Time       int64          `json:"time"`
	DistinctID string         `json:"distinctId"`
	Properties map[string]any `json:"properties,omitempty"`
}

// StartupEventInfo describes the running server.
type StartupEventInfo struct {
	Version       string
	ReadOnly      bool
	APOCEnabled   bool
	ToolCount     int
	ManifestTools int
}

// ImportEventInfo summarises a finished import. Paths and headers are never
// sent.
type ImportEventInfo struct {
	Kind      string
	Files     int
	Rows      int
	Batches   int
	Dynamic   bool
	Duration  time.Duration
	Succeeded bool
}

type analyticsService struct {
	mu         sync.RWMutex
	enabled    bool
	endpoint   string
	client     HTTPClient
	distinctID string
	now        func() time.Time
}

// NewAnalytics returns a service posting events to endpoint. The service
// starts disabled when endpoint is empty.
func NewAnalytics(endpoint string, client HTTPClient) Service {
	return &analyticsService{
		enabled:    endpoint != "",
		endpoint:   endpoint,
		client:     client,
		distinctID: uuid.NewString(),
		now:        time.Now,
	}
}

func (a *analyticsService) Disable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = false
}

func (a *analyticsService) Enable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = a.endpoint != ""
}

func (a *analyticsService) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// EmitEvent posts the event. Failures are logged and otherwise ignored.
func (a *analyticsService) EmitEvent(event TrackEvent) {
	if !a.IsEnabled() || a.client == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Debug("failed to marshal analytics event", "event", event.Event, "error", err)
		return
	}

	resp, err := a.client.Post(a.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("failed to send analytics event", "event", event.Event, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		slog.Debug("analytics endpoint rejected event", "event", event.Event, "status", resp.StatusCode)
	}
}

func (a *analyticsService) newEvent(name string, props map[string]any) TrackEvent {
	return TrackEvent{
		Event:      name,
		InsertID:   uuid.NewString(),
		Time:       a.now().UnixMilli(),
		DistinctID: a.distinctID,
		Properties: props,
	}
}

func (a *analyticsService) NewStartupEvent(info StartupEventInfo) TrackEvent {
	return a.newEvent(startupEventName, map[string]any{
		"version":       info.Version,
		"readonly":      info.ReadOnly,
		"apoc":          info.APOCEnabled,
		"tools":         info.ToolCount,
		"manifestTools": info.ManifestTools,
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
	})
}

func (a *analyticsService) NewToolsEvent(toolsUsed string) TrackEvent {
	return a.newEvent(toolsEventName, map[string]any{
		"tool": toolsUsed,
	})
}

func (a *analyticsService) NewImportEvent(info ImportEventInfo) TrackEvent {
	return a.newEvent(importEventName, map[string]any{
		"kind":       info.Kind,
		"files":      info.Files,
		"rows":       info.Rows,
		"batches":    info.Batches,
		"dynamic":    info.Dynamic,
		"durationMs": info.Duration.Milliseconds(),
		"succeeded":  info.Succeeded,
	})
}
