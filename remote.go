package pubform

import (
	"context"

	"github.com/eringen/pubform/postgrest"
)

// RemoteStore inserts content through a hosted PostgREST table API.
type RemoteStore struct {
	client *postgrest.Client
}

// NewRemoteStore creates a RemoteStore for the project at url.
func NewRemoteStore(url, apiKey string, opts ...postgrest.Option) (*RemoteStore, error) {
	c, err := postgrest.New(url, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &RemoteStore{client: c}, nil
}

func (r *RemoteStore) Insert(ctx context.Context, table string, records []ContentRecord) ([]map[string]any, error) {
	return r.client.Insert(ctx, table, records)
}
