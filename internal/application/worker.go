package application

import "context"

// Worker represents a background processor.
// Implementations run until the context is canceled or a fatal error occurs.
type Worker interface {
	Start(ctx context.Context) error
}
