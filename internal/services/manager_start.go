package services

import (
	"context"
	"log/slog"
)

// Start launches the HTTP listener in the background. A listener failure is
// reported on the returned channel, which is never closed.
func (m *Manager) Start(bgCtx context.Context) <-chan error {
	errs := make(chan error, 1)
	if m.server == nil {
		return errs
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.server.Start(bgCtx); err != nil {
			slog.Error("HTTP server stopped", "error", err)
			errs <- err
		}
	}()
	return errs
}
