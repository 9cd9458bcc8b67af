package secrets

import "context"

// Store is a named-parameter secret store. Values are encrypted at rest;
// GetParameter returns the decrypted value.
type Store interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value string) error
}
