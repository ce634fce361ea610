package chat

import "go.uber.org/fx"

// Module provides the chat service and its HTTP handler
var Module = fx.Module("chat",
	fx.Provide(
		NewService,
		NewHandler,
	),
)
