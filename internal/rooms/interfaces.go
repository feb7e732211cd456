package rooms

import "context"

type Loader interface {
	LoadCatalog(ctx context.Context, path string) (*Catalog, error)
}
