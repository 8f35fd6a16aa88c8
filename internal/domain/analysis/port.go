package analysis

import "context"

// Client port (interface to the hosted analysis agent)
type Client interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// ObjectStore port (interface to the remote object repository)
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (*SourceObject, error)
	Put(ctx context.Context, out *OutputObject) error
}
