package llm

import "go.uber.org/fx"

// Module provides the completion client and the persona
var Module = fx.Module("llm",
	fx.Provide(
		fx.Annotate(
			NewOpenAIClient,
			fx.As(new(Completer)),
		),
		NewPersona,
	),
)
