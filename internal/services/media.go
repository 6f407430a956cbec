package services

import (
	"context"

	"go.uber.org/zap"
)

// MediaStore destroys board media blobs held in external object storage.
type MediaStore interface {
	Destroy(ctx context.Context, publicID string) error
}

// LoggingMediaStore records destroy requests for deployments where blobs are
// swept by the storage provider itself.
type LoggingMediaStore struct {
	logger *zap.Logger
}

// NewLoggingMediaStore creates a LoggingMediaStore.
func NewLoggingMediaStore(logger *zap.Logger) *LoggingMediaStore {
	return &LoggingMediaStore{logger: logger}
}

// Destroy logs the blob scheduled for removal.
func (s *LoggingMediaStore) Destroy(_ context.Context, publicID string) error {
	s.logger.Info("media destroy requested", zap.String("public_id", publicID))
	return nil
}
