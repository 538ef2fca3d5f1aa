package platform

import "context"

// Gateway is the remote request surface the resolver, query builder,
// catalog and bulk coordinator depend on. *Client implements it.
type Gateway interface {
	// Request performs an authenticated call and returns the raw body.
	Request(ctx context.Context, method, path string, payload interface{}) ([]byte, error)

	// DoJSON performs a call and decodes the JSON response into dest.
	DoJSON(ctx context.Context, method, path string, payload, dest interface{}) error
}

var _ Gateway = (*Client)(nil)
