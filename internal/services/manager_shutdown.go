package services

import (
	"context"
	"log/slog"
)

func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		slog.Info("Stopping HTTP server...")
		if err := m.server.Stop(ctx); err != nil {
			slog.Error("Error shutting down HTTP server", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Timeout waiting for background tasks")
	}

	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			slog.Error("Error closing event publisher", "error", err)
		}
	}

	if m.storage != nil {
		if err := m.storage.Close(ctx); err != nil {
			slog.Error("Error closing storage", "error", err)
		}
	}
}
