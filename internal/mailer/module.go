package mailer

import "go.uber.org/fx"

// Module provides the mailer
var Module = fx.Module("mailer",
	fx.Provide(New),
)
