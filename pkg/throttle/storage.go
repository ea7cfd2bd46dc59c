package throttle

import "context"

// Storage persists the serialized identifier→Entry mapping under one
// backend-specific key. Implementations must return (nil, nil) from Load
// when no state has been saved yet.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
