package devtools

import (
	"context"

	"escaperoom/internal/engine"
)

type Demo interface {
	Resolve(name string) Scenario
	Apply(ctx context.Context, e *engine.Engine, name string) (Scenario, error)
}
