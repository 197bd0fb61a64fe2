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
	"fedigate/internal/ssr"
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
		kong.Name("fedigate-ssr"),
		kong.Description("SSR meta-tag injector and proxy for the fedigate web app."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			func() handler.Service { return handler.Service("fedigate-ssr") },
			config.Load,
			app.NewLogger,
			metrics.New,
			app.NewEcho,
			route.NewResolverFromConfig,
			client.NewUpstreamClient,
			service.NewProxyService,
			ssr.NewInjector,
			handler.NewProxyHandler,
			handler.NewHealthHandler,
			handler.NewSSRHandler,
		),
		fx.Invoke(handler.RegisterSSRRoutes, app.WarnConfigPermissions, app.StartServer),
	).Run()
}
