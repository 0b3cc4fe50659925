package banner

import "fmt"

const banner = `
██████╗  █████╗ ██████╗ ██╗     ███████╗██╗   ██╗
██╔══██╗██╔══██╗██╔══██╗██║     ██╔════╝╚██╗ ██╔╝
██████╔╝███████║██████╔╝██║     █████╗   ╚████╔╝
██╔═══╝ ██╔══██║██╔══██╗██║     ██╔══╝    ╚██╔╝
██║     ██║  ██║██║  ██║███████╗███████╗   ██║
╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚══════╝   ╚═╝
`

// Print writes the startup banner with the effective runtime summary.
func Print(addr, dbPath, self, transportURL, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("DB Path:   %s\n", dbPath)
	if self != "" {
		fmt.Printf("Self:      %s\n", self)
	}
	if transportURL != "" {
		fmt.Printf("Transport: %s\n", transportURL)
	} else {
		fmt.Println("Transport: in-memory loopback")
	}
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET /v1/conversations           - list open conversations")
	fmt.Println("GET /v1/conversations/{id}      - one conversation snapshot")
	fmt.Println("GET /v1/conversations/{id}/messages?limit=<n>")
	fmt.Println("GET /metrics, /healthz, /docs/")
}
