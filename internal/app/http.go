package app

import (
	"context"
	"net/http"

	"chatmesh/pkg/api"
	"chatmesh/pkg/auth"
	"chatmesh/pkg/banner"
	"chatmesh/pkg/realtime"
	"chatmesh/pkg/telemetry"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" && a.commit != "" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" && a.buildDate != "" {
		verStr += " @ " + a.buildDate
	}
	banner.PrintWithEff(a.eff, verStr)
}

// startHTTP builds the handler stack, starts the HTTP server in a goroutine
// and returns a channel that will carry any fatal server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, a.eff.Config.Security.CORS.AllowedOrigins...),
		RPS:            a.eff.Config.Security.RateLimit.RPS,
		Burst:          a.eff.Config.Security.RateLimit.Burst,
		IPWhitelist:    append([]string{}, a.eff.Config.Security.IPWhitelist...),
		BackendKeys:    map[string]struct{}{},
		FrontendKeys:   map[string]struct{}{},
		AdminKeys:      map[string]struct{}{},
	}
	for _, k := range a.eff.Config.Security.APIKeys.Backend {
		secCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range a.eff.Config.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	for _, k := range a.eff.Config.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}

	hub := realtime.NewHub()
	a.chat.Notify = realtime.MessageNotifier(hub)
	ws := realtime.NewRouter(hub, a.chat, a.eff.Config.Security.CORS.AllowedOrigins)

	handler := api.Handler(api.Deps{
		Chat:        a.chat,
		Blob:        a.media,
		MediaDir:    a.media.Dir(),
		WS:          ws,
		MaxUploadMB: a.eff.Config.Media.MaxUploadMB,
		PageSize:    a.eff.Config.PageSize(),
		Version:     a.version,
	})

	// gateway first, then telemetry so refused requests are measured too
	wrapped := auth.AuthenticateRequestMiddleware(secCfg)(handler)
	wrapped = telemetry.Middleware(wrapped)

	a.srv = &http.Server{Addr: a.eff.Addr, Handler: wrapped}

	errCh := make(chan error, 1)
	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
