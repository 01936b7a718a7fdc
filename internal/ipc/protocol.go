package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandGetMonitors  CommandType = "GET_MONITORS"
	CommandListButtons  CommandType = "LIST_BUTTONS"
	CommandMoveButton   CommandType = "MOVE_BUTTON"
	CommandUpdateLayout CommandType = "UPDATE_LAYOUT"
	CommandSetEdge      CommandType = "SET_EDGE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RectInfo is a device-pixel rectangle.
type RectInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	State         string   `json:"state"`
	Edge          string   `json:"edge"`
	Monitor       string   `json:"monitor,omitempty"`
	Bounds        RectInfo `json:"bounds"`
	ButtonCount   int      `json:"button_count"`
	GroupCount    int      `json:"group_count"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	DaemonRunning bool     `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Primary bool    `json:"primary,omitempty"`
	DPI     float64 `json:"dpi,omitempty"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// ButtonInfo describes one button in display order.
type ButtonInfo struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	GroupKey    string `json:"group_key"`
	GroupIndex  int    `json:"group_index"`
	WindowIndex int    `json:"window_index"`
}

// ButtonsData represents the data returned by LIST_BUTTONS
type ButtonsData struct {
	Buttons []ButtonInfo `json:"buttons"`
}

// MoveButtonPayload names the dragged button and the drop target by key.
type MoveButtonPayload struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MoveData reports a committed move.
type MoveData struct {
	CrossGroup bool `json:"cross_group"`
	FromIndex  int  `json:"from_index"`
	ToIndex    int  `json:"to_index"`
}

type SetEdgePayload struct {
	Edge string `json:"edge"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
