package websocket

import (
	"time"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeMasking reports a completed masking operation
	EventTypeMasking EventType = "masking"
	// EventTypeDictionary reports a dictionary mutation
	EventTypeDictionary EventType = "dictionary"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// MaskingEvent summarizes one masking operation. It never carries original
// values or masked text, only counts and categories.
type MaskingEvent struct {
	RequestID     string   `json:"request_id"`
	EntitiesFound int      `json:"entities_found"`
	Categories    []string `json:"categories,omitempty"`
	FromCache     bool     `json:"from_cache"`
	ProcessingMS  float64  `json:"processing_ms"`
}

// DictionaryEvent reports a dictionary mutation to connected dashboards.
type DictionaryEvent struct {
	Action      string `json:"action"` // "added", "updated", "deleted"
	EntityID    string `json:"entity_id"`
	Placeholder string `json:"placeholder,omitempty"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalRequests    int64  `json:"total_requests"`
	TotalMaskings    int64  `json:"total_maskings"`
	DictionarySize   int    `json:"dictionary_size"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         interface{} // *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
	UserAgent    string
}
