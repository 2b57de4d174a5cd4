package main

import (
	appfx "Recurra/internal/fx"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		appfx.AppModule,
	).Run()
}
