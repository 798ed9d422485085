// Package plugin provides plugin discovery and execution for Kaishou. Plugins
// are standalone executables that receive one JSON request on stdin and reply
// with one JSON response on stdout. The audio backend is such a plugin.
package plugin

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action. A manifest without an
// action list accepts every action.
func (p *Plugin) Supports(action string) bool {
	if len(p.Manifest.Actions) == 0 {
		return true
	}
	return slices.Contains(p.Manifest.Actions, action)
}

// Tone is the wire form of a chime.ToneEvent.
type Tone struct {
	Frequency  float64 `json:"frequency"`
	OffsetMs   int64   `json:"offset_ms"`
	DurationMs int64   `json:"duration_ms"`
}

// PlayParams are the params of a "play" request. Start is the wall-clock
// instant that tone offsets are measured from.
type PlayParams struct {
	Start time.Time `json:"start"`
	Tones []Tone    `json:"tones"`
}

// NewPlayParams converts a tone schedule to its wire form.
func NewPlayParams(start time.Time, tones []chime.ToneEvent) PlayParams {
	p := PlayParams{Start: start, Tones: make([]Tone, len(tones))}
	for i, t := range tones {
		p.Tones[i] = Tone{
			Frequency:  t.Frequency,
			OffsetMs:   t.Offset.Milliseconds(),
			DurationMs: t.Duration.Milliseconds(),
		}
	}
	return p
}

// ToneEvents converts the wire tones back into a schedule.
func (p PlayParams) ToneEvents() []chime.ToneEvent {
	out := make([]chime.ToneEvent, len(p.Tones))
	for i, t := range p.Tones {
		out[i] = chime.ToneEvent{
			Frequency: t.Frequency,
			Offset:    time.Duration(t.OffsetMs) * time.Millisecond,
			Duration:  time.Duration(t.DurationMs) * time.Millisecond,
		}
	}
	return out
}
