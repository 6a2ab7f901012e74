package banner

import (
	"fmt"

	"snapfeed/pkg/config"
)

const banner = `
███████╗███╗   ██╗ █████╗ ██████╗ ███████╗███████╗███████╗██████╗
██╔════╝████╗  ██║██╔══██╗██╔══██╗██╔════╝██╔════╝██╔════╝██╔══██╗
███████╗██╔██╗ ██║███████║██████╔╝█████╗  █████╗  █████╗  ██║  ██║
╚════██║██║╚██╗██║██╔══██║██╔═══╝ ██╔══╝  ██╔══╝  ██╔══╝  ██║  ██║
███████║██║ ╚████║██║  ██║██║     ██║     ███████╗███████╗██████╔╝
╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝     ╚═╝     ╚══════╝╚══════╝╚═════╝
`

// Print prints the startup banner using the effective config.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config source: %s\n", src)
	if eff.Config != nil {
		fmt.Printf("Retention: window=%s enabled=%v\n", eff.Config.RetentionMaxAge(), eff.Config.RetentionEnabled())
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /api/register   - Claim a username (JSON: username, sessionId)")
	fmt.Println("POST /api/upload     - Upload a post or story (JSON: sessionId, imageId, image, type, timestamp)")
	fmt.Println("GET  /api/content    - List all posts and stories (sweeps expired content first)")
	fmt.Println("GET  /api/user-posts?sessionId=<id> - List the caller's own items")
	fmt.Println("POST /api/delete     - Delete one item (JSON: sessionId, imageId)")
	fmt.Println("GET  /api/health     - Liveness check")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/api/register' -d '{\"username\":\"alice\",\"sessionId\":\"s1\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/api/content'\n", addr)
}
