package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/mask-tools-mcp/internal/config"
	"github.com/ironsheep/mask-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func printHelp() {
	fmt.Println("mask-tools-mcp - MCP server for painting inpainting masks")
	fmt.Println()
	fmt.Println("Usage: mask-tools-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH    Read settings from a TOML file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  MASK_MCP_CONFIG=PATH              TOML settings file (when --config is absent)")
	fmt.Println("  MASK_MCP_WIDTH, MASK_MCP_HEIGHT   Mask size in pixels (default 512x512)")
	fmt.Println("  MASK_MCP_SAVE_INTERVAL_MS=5000    Minimum time between mask saves")
	fmt.Println("  MASK_MCP_BRUSH_COLOR=255          Initial brush gray level (0-255)")
	fmt.Println("  MASK_MCP_BRUSH_SIZE=8             Initial brush radius (4-64)")
	fmt.Println("  MASK_MCP_OUTPUT=PATH              Write every saved mask to this PNG file")
	fmt.Println("  MASK_MCP_LOG_LEVEL=debug          Enable debug logging")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	var configPath string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("mask-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			printHelp()
			return
		case arg == "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			fmt.Fprintf(os.Stderr, "unknown argument: %s\n", arg)
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Mask MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Mask %dx%d, save interval %s, output %q", cfg.Width, cfg.Height, cfg.SaveInterval(), cfg.OutputPath)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}

	err = srv.Run()
	if cerr := srv.Close(); cerr != nil {
		log.Printf("Shutdown error: %v", cerr)
	}
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
