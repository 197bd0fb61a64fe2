package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"go.uber.org/fx"

	"fedigate/internal/app"
	"fedigate/internal/client"
	"fedigate/internal/config"
	"fedigate/internal/handler"
	"fedigate/internal/metrics"
	"fedigate/internal/route"
	"fedigate/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("fedigate-proxy"),
		kong.Description("Reverse proxy and static host for the fedigate web app."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			config.Load,
			app.NewLogger,
			metrics.New,
			app.NewEcho,
			route.NewResolverFromConfig,
			client.NewUpstreamClient,
			service.NewProxyService,
			handler.NewProxyHandler,
		),
		fx.Invoke(handler.RegisterProxyRoutes, app.WarnConfigPermissions, app.StartServer),
	).Run()
}
