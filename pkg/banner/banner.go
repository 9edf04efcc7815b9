package banner

import (
	"fmt"

	"chatmesh/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗███╗   ███╗███████╗███████╗██╗  ██╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝████╗ ████║██╔════╝██╔════╝██║  ██║
██║     ███████║███████║   ██║   ██╔████╔██║█████╗  ███████╗███████║
██║     ██╔══██║██╔══██║   ██║   ██║╚██╔╝██║██╔══╝  ╚════██║██╔══██║
╚██████╗██║  ██║██║  ██║   ██║   ██║ ╚═╝ ██║███████╗███████║██║  ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝     ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝
`

// PrintWithEff prints the startup banner with the effective config so ops
// can verify at a glance what the server is running with.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("DB Path:   %s\n", eff.DBPath)
	fmt.Printf("Media Dir: %s\n", eff.MediaDir)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Printf("Config:    %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /api/messages/send/text         - Send a text message")
	fmt.Println("GET  /api/messages/chat/{userId}     - List a conversation")
	fmt.Println("GET  /ws                             - Realtime websocket")
	fmt.Println("GET  /docs/                          - API documentation")

	fmt.Println("\n== Production? ================================================")
	be, fe, ak, sk := 0, 0, 0, 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ak = len(eff.Config.Security.APIKeys.Admin)
		sk = len(eff.Config.SigningKeySet())
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for provisioning)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for moderation tooling)")
	}
	if sk > 0 {
		fmt.Printf("- Signing keys: OK (%d)\n", sk)
	} else {
		fmt.Println("- Signing keys: MISSING (no user can authenticate)")
	}

	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if eff.Config != nil && eff.Config.Retention.Enabled {
		cron := eff.Config.Retention.Cron
		if cron == "" {
			cron = "0 2 * * *"
		}
		fmt.Printf("- Retention: enabled (cron=%s ttl_days=%d)\n", cron, eff.Config.Retention.TTLDays)
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs =======================================================")
}
