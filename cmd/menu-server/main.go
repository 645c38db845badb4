// Command menu-server serves the digital menu, the cart and checkout over
// HTTP. Configuration comes from CARDAPIO_* environment variables, flags
// or config.yaml.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/cardapio/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		return appkg.Run(ctx, lg.Named("menu"), m, cfg)
	})
}
