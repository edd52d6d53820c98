// Package tui implements the full-screen modem console.
//
// The console is a Bubble Tea program with five panels (Subscribe,
// Publish, Settings, Sensors and WiFi), exactly one of which is active.
// Every device request runs as a tea.Cmd and reports back with exactly one
// message; all state changes happen in Update.
//
// Two periodic fetches exist: the broker status poller, which runs only
// while Settings is active, and the sensor watch, which runs only while
// Sensors is active. Both tag their ticks with a generation so a stopped
// or restarted timer never fires twice.
//
// Each action (add topic, delete topic, save settings, publish, save WiFi)
// holds a lock while its request is in flight. The lock is released by the
// result handler whatever the outcome.
//
// When no device is configured, Pick shows an mDNS device picker first.
package tui
