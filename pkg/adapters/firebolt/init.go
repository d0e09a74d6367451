// Package firebolt provides the adapter for the cloud warehouse itself. It
// runs statements through the engine HTTP endpoint.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/firebolt-db/firebolt-cli/pkg/adapters/firebolt"
package firebolt

import (
	"log/slog"

	"github.com/firebolt-db/firebolt-cli/pkg/adapter"
)

func init() {
	adapter.Register("firebolt", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
