// Package dbus exposes the sound service on the session bus as
// io.github.jmylchreest.Soundstage. It provides the daemon-side Server, a
// Client for the CLI, and a Monitor that follows StateChanged signals.
package dbus
