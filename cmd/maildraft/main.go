package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajramos/maildraft/internal/config"
	"github.com/ajramos/maildraft/internal/db"
	"github.com/ajramos/maildraft/internal/gmail"
	"github.com/ajramos/maildraft/internal/llm"
	"github.com/ajramos/maildraft/internal/services"
	"github.com/ajramos/maildraft/internal/tui"
	"github.com/ajramos/maildraft/internal/version"
	"github.com/ajramos/maildraft/pkg/auth"
)

func main() {
	// Essential command line flags only (GNU-style double dashes)
	configPathFlag := flag.String("config", "", "Path to configuration file (default: ~/.config/maildraft/config.json)")
	credPathFlag := flag.String("credentials", "", "Path to OAuth client credentials JSON (default: ~/.config/maildraft/credentials.json)")
	replyFlag := flag.String("reply", "", "Compose a reply to the given message ID")
	replyAllFlag := flag.String("reply-all", "", "Compose a reply-all to the given message ID")
	forwardFlag := flag.String("forward", "", "Forward the given message ID")
	setupFlag := flag.Bool("setup", false, "Run interactive setup wizard")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	// Override flag usage text to show clean, simple usage
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Compose a new message\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --reply <messageID>    # Reply to a message\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --setup                # Run interactive setup wizard\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version              # Show version information\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  --config string\n        %s\n", "Path to configuration file (default: ~/.config/maildraft/config.json)")
		fmt.Fprintf(os.Stderr, "  --credentials string\n        %s\n", "Path to OAuth client credentials JSON (default: ~/.config/maildraft/credentials.json)")
		fmt.Fprintf(os.Stderr, "  --reply string\n        %s\n", "Compose a reply to the given message ID")
		fmt.Fprintf(os.Stderr, "  --reply-all string\n        %s\n", "Compose a reply-all to the given message ID")
		fmt.Fprintf(os.Stderr, "  --forward string\n        %s\n", "Forward the given message ID")
		fmt.Fprintf(os.Stderr, "  --setup\n        %s\n", "Run interactive setup wizard")
		fmt.Fprintf(os.Stderr, "  --version\n        %s\n\n", "Show version information and exit")
		fmt.Fprintf(os.Stderr, "Environment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MAILDRAFT_CONFIG       Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  MAILDRAFT_CREDENTIALS  Override default credentials file path\n")
		fmt.Fprintf(os.Stderr, "  MAILDRAFT_TOKEN        Override default token file path\n\n")
		fmt.Fprintf(os.Stderr, "For all other settings (completion provider, timings, cache), edit the config file.\n")
	}

	flag.Parse()

	// Handle version flag
	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	// Handle setup mode
	if *setupFlag {
		runSetupWizard()
		return
	}

	mode, messageID, err := resolveMode(*replyFlag, *replyAllFlag, *forwardFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// Load configuration with smart defaults and environment variable support
	configPath := getConfigPath(*configPathFlag)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: could not load configuration: %v", err)
		cfg = config.DefaultConfig()
	}

	logger, logClose := openLogger(cfg)
	defer logClose()

	// Determine credential and token paths with smart defaults
	credPath := getCredentialsPath(*credPathFlag, cfg.Credentials)
	tokenPath := getTokenPath("", cfg.Token)

	// Validate credentials path
	if credPath == "" {
		log.Fatal("Gmail credentials file is required. Provide it via --credentials or config file.")
	}

	if _, err := os.Stat(credPath); err != nil {
		log.Fatalf("Credentials file not found at %s. Download client credentials from Google Cloud Console and place it there.", credPath)
	}

	// Initialize Gmail service
	ctx := context.Background()
	service, err := auth.NewGmailService(ctx, credPath, tokenPath, auth.DefaultScopes()...)
	if err != nil {
		log.Fatalf("Could not initialize Gmail service: %v", err)
	}

	// Create Gmail client (message fetch + send transport)
	gmailClient := gmail.NewClient(service)

	// Initialize the completion provider
	var provider llm.Provider
	if cfg.Completion.Enabled {
		region := cfg.Completion.Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		provider, err = llm.NewProvider(llm.Options{
			Provider:       cfg.Completion.Provider,
			Endpoint:       cfg.Completion.Endpoint,
			Model:          cfg.Completion.Model,
			Region:         region,
			APIKey:         cfg.Completion.APIKey,
			PromptTemplate: cfg.Completion.GetCompletionPrompt(),
			Timeout:        cfg.GetCompletionTimeout(),
		})
		if err != nil {
			log.Printf("Warning: could not initialize completion provider (%s): %v", cfg.Completion.Provider, err)
		}
	}

	// Optional: open the local suggestion cache
	var cacheService services.CacheService
	if cfg.Cache.Enabled {
		if store, err := db.Open(ctx, cfg.GetCachePath()); err == nil {
			defer func() { _ = store.Close() }()
			suggestionStore := db.NewSuggestionStore(store)
			pruneSuggestionCache(ctx, suggestionStore, cfg.Cache.MaxAgeDays, logger)
			cacheService = services.NewCacheService(suggestionStore)
		} else {
			log.Printf("Warning: could not open suggestion cache: %v", err)
		}
	}

	accountEmail, err := gmailClient.ActiveAccountEmail(ctx)
	if err != nil {
		log.Printf("Warning: could not resolve account email: %v", err)
	}

	suggestionService := services.NewSuggestionService(provider, cacheService, accountEmail)
	suggestionService.SetLogger(logger)

	compositionService := services.NewCompositionService(gmailClient, gmailClient, gmailClient, suggestionService, cfg)
	compositionService.SetLogger(logger)

	// Create and run TUI
	app := tui.NewApp(compositionService, cfg, logger)
	if err := app.Run(mode, messageID); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}

	if app.Sent() {
		fmt.Println("Message sent.")
		// Cached continuations for an answered message stop being useful
		if messageID != "" {
			if err := suggestionService.InvalidateMessage(ctx, messageID); err != nil && logger != nil {
				logger.Printf("could not invalidate cached suggestions for %s: %v", messageID, err)
			}
		}
	}
}

// resolveMode maps the compose-target flags onto a single startup mode.
// At most one of reply/reply-all/forward may be given.
func resolveMode(reply, replyAll, forward string) (tui.Mode, string, error) {
	set := 0
	for _, v := range []string{reply, replyAll, forward} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return tui.ModeNew, "", fmt.Errorf("only one of --reply, --reply-all, --forward may be given")
	}

	switch {
	case reply != "":
		return tui.ModeReply, reply, nil
	case replyAll != "":
		return tui.ModeReplyAll, replyAll, nil
	case forward != "":
		return tui.ModeForward, forward, nil
	default:
		return tui.ModeNew, "", nil
	}
}

// openLogger opens the configured log file, or discards logs when none is
// configured. The returned func closes the file.
func openLogger(cfg *config.Config) (*log.Logger, func()) {
	path := cfg.LogFile
	if path == "" {
		return nil, func() {}
	}
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("Warning: could not create log directory: %v", err)
		return nil, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Warning: could not open log file: %v", err)
		return nil, func() {}
	}
	return log.New(f, "", log.LstdFlags), func() { _ = f.Close() }
}

// pruneSuggestionCache drops cached suggestions older than the configured
// age. Failures only cost disk space, so they are logged and ignored.
func pruneSuggestionCache(ctx context.Context, store *db.SuggestionStore, maxAgeDays int, logger *log.Logger) {
	if maxAgeDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays).Unix()
	if n, err := store.PruneOlderThan(ctx, cutoff); err != nil {
		if logger != nil {
			logger.Printf("could not prune suggestion cache: %v", err)
		}
	} else if n > 0 && logger != nil {
		logger.Printf("pruned %d cached suggestions", n)
	}
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILDRAFT_CONFIG
// 3. Default path ~/.config/maildraft/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILDRAFT_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}

	return config.DefaultConfigPath()
}

// getCredentialsPath returns the credentials file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILDRAFT_CREDENTIALS
// 3. Config file setting
// 4. Default path ~/.config/maildraft/credentials.json
func getCredentialsPath(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILDRAFT_CREDENTIALS"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	credPath, _ := config.DefaultCredentialPaths()
	return credPath
}

// getTokenPath returns the token file path using the following priority:
// 1. CLI flag
// 2. Environment variable MAILDRAFT_TOKEN
// 3. Config file setting
// 4. Default path ~/.config/maildraft/token.json
func getTokenPath(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envPath := os.Getenv("MAILDRAFT_TOKEN"); envPath != "" {
		return expandPath(envPath)
	}

	if configValue != "" {
		return expandPath(configValue)
	}

	_, tokenPath := config.DefaultCredentialPaths()
	return tokenPath
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}

// runSetupWizard runs an interactive setup wizard to help users configure Maildraft
func runSetupWizard() {
	fmt.Println("📧 Maildraft Setup Wizard")
	fmt.Println("=========================")
	fmt.Println()

	// Check if default config already exists
	defaultConfigPath := config.DefaultConfigPath()
	credPath, tokenPath := config.DefaultCredentialPaths()

	if _, err := os.Stat(defaultConfigPath); err == nil {
		fmt.Printf("✅ Configuration file already exists: %s\n", defaultConfigPath)
	} else {
		fmt.Printf("📝 Will create configuration file: %s\n", defaultConfigPath)
	}

	if _, err := os.Stat(credPath); err == nil {
		fmt.Printf("✅ Credentials file found: %s\n", credPath)
	} else {
		fmt.Printf("⚠️  Credentials file missing: %s\n", credPath)
		fmt.Println()
		fmt.Println("📋 To set up Gmail API credentials:")
		fmt.Println("1. Go to https://console.cloud.google.com/")
		fmt.Println("2. Create a new project or select existing one")
		fmt.Println("3. Enable Gmail API")
		fmt.Println("4. Create OAuth 2.0 credentials (Desktop application)")
		fmt.Println("5. Download the JSON file and save it as:")
		fmt.Printf("   %s\n", credPath)
		fmt.Println()
	}

	if _, err := os.Stat(tokenPath); err == nil {
		fmt.Printf("✅ Token file exists: %s\n", tokenPath)
	} else {
		fmt.Printf("🔐 Token will be created on first login: %s\n", tokenPath)
	}

	// Create default config if it doesn't exist
	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		fmt.Println()
		fmt.Print("📄 Create default configuration file? [Y/n]: ")

		var response string
		_, _ = fmt.Scanln(&response) // User input - error not actionable

		if response == "" || strings.ToLower(response) == "y" || strings.ToLower(response) == "yes" {
			cfg := config.DefaultConfig()
			if err := cfg.SaveConfig(defaultConfigPath); err != nil {
				fmt.Printf("❌ Failed to create config file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ Created configuration file: %s\n", defaultConfigPath)
		}
	}

	fmt.Println()
	fmt.Println("🚀 Setup complete! You can now run:")
	fmt.Printf("   %s\n", os.Args[0])
	fmt.Println()
	fmt.Println("💡 Tips:")
	fmt.Println("• Edit the config file to customize the completion provider")
	fmt.Println("• Use environment variables for different profiles")
	fmt.Println("• Run with -h to see all options")
}
