package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// StateHandler is called for every StateChanged signal.
type StateHandler func(ev StateEvent)

// Monitor follows StateChanged signals from a running daemon.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger

	onState StateHandler
}

// NewMonitor creates a new state monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger: logger,
	}
}

// SetStateHandler sets the callback for received state changes.
func (m *Monitor) SetStateHandler(handler StateHandler) {
	m.onState = handler
}

// Run subscribes to StateChanged and dispatches signals until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn
	defer conn.Close()

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember("StateChanged"),
	)
	if err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 64)
	conn.Signal(ch)
	defer conn.RemoveSignal(ch)

	m.logger.Info("monitoring soundstage state changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			m.handle(sig)
		}
	}
}

func (m *Monitor) handle(sig *dbus.Signal) {
	ev, err := ParseStateEvent(sig)
	if err != nil {
		m.logger.Debug("ignoring signal", "name", sig.Name, "error", err)
		return
	}
	if m.onState != nil {
		m.onState(ev)
	}
}
