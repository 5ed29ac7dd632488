package transaction

import "go.uber.org/fx"

// Module exposes the recorder and the query service via Fx.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewGormStore, fx.As(new(Store))),
		NewRecorder,
		NewService,
	),
)
