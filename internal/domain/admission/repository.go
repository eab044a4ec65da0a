package admission

import "context"

// KeyRepository answers membership queries against the provisioned key set.
type KeyRepository interface {
	HasKey(ctx context.Context, key string) (bool, error)
}
