// Package permission reports the macOS privacy permissions the app needs.
package permission

import (
	"fmt"
	"log/slog"
)

// Status is the state of a single permission.
type Status int

const (
	Unknown Status = iota
	Granted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Report holds the probe results.
type Report struct {
	Accessibility   Status
	ScreenRecording Status
	Microphone      Status
}

// Probe checks all permissions without prompting.
func Probe() Report {
	return Report{
		Accessibility:   accessibility(),
		ScreenRecording: screenRecording(),
		Microphone:      microphone(),
	}
}

// RequestScreenCapture asks the system to show the screen recording prompt.
func RequestScreenCapture() {
	requestScreenCapture()
}

// Missing lists human readable hints for permissions that are not granted.
func (r Report) Missing() []string {
	var out []string
	add := func(s Status, name, pane string) {
		if s == Denied {
			out = append(out, fmt.Sprintf("%s is denied: enable it in System Settings > Privacy & Security > %s", name, pane))
		}
	}
	add(r.Accessibility, "accessibility", "Accessibility")
	add(r.ScreenRecording, "screen recording", "Screen Recording")
	add(r.Microphone, "microphone", "Microphone")
	return out
}

// Log writes the report as warnings. It never fails.
func (r Report) Log() {
	slog.Info("permissions",
		"accessibility", r.Accessibility,
		"screen_recording", r.ScreenRecording,
		"microphone", r.Microphone,
	)
	for _, m := range r.Missing() {
		slog.Warn(m)
	}
}
