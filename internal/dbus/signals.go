package dbus

import (
	"fmt"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// EmitStateChanged emits the StateChanged signal.
// This signal is emitted on every handle transition, including mounts that
// were made in-process rather than over the bus.
func (s *Server) EmitStateChanged(info playback.HandleInfo) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}

	err := s.conn.Emit(Path, Interface+".StateChanged", info.ID, info.Key, info.State.String())
	if err != nil {
		return fmt.Errorf("failed to emit StateChanged signal: %w", err)
	}

	s.logger.Debug("emitted StateChanged signal", "id", info.ID, "key", info.Key, "state", info.State)
	return nil
}
