package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"localchat/internal/catalog"
	"localchat/internal/config"
	"localchat/internal/httpapi"
	"localchat/internal/inventory"
	"localchat/internal/relay"
	"localchat/internal/upstream"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  localchat serve --addr :8080 --ollama-endpoint http://localhost:11434",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(g.configPath, os.Getenv, cmd.Flags())
			if err != nil {
				return err
			}
			level := g.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			cfg.LogLevel = level
			log, err := newLogger(os.Stderr, level, g.logFormat)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			return serve(cmd.Context(), cfg, log, ln)
		},
	}
	f := cmd.Flags()
	f.String("addr", config.DefaultAddr, "HTTP listen address, e.g. :8080")
	f.String("ollama-endpoint", config.DefaultOllamaEndpoint, "Default Ollama endpoint when a request names none")
	f.String("openai-base-url", upstream.DefaultOpenAIBaseURL, "OpenAI API root")
	f.String("catalog-api-url", catalog.DefaultThirdPartyURL, "Third-party model catalog API")
	f.String("library-url", catalog.DefaultLibraryURL, "Public model library site")
	f.String("default-model", relay.DefaultOllamaModel, "Ollama model used when a chat request names none")
	f.String("system-prompt", "", "System message prepended to every conversation")
	f.String("ui-dir", "", "Directory of static UI files served under /")
	f.Int64("max-body-bytes", config.DefaultMaxBodyBytes, "Maximum JSON request body size")
	f.Duration("chat-timeout", 0, "Upper bound of one chat stream (0 = none)")
	f.Duration("upstream-connect-timeout", config.DefaultConnectTimeout, "Dial timeout for upstream connections")
	f.Bool("cors-enabled", false, "Enable CORS middleware")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated)")
	f.StringSlice("cors-methods", nil, "Allowed CORS methods (comma-separated)")
	f.StringSlice("cors-headers", nil, "Allowed CORS headers (comma-separated)")
	return cmd
}

// resolveConfig layers defaults < file < environment < explicitly set flags.
func resolveConfig(path string, getenv func(string) string, flags *pflag.FlagSet) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	if err := applyFlags(&cfg, flags); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}

func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "addr":
			cfg.Addr = f.Value.String()
		case "ollama-endpoint":
			cfg.OllamaEndpoint = f.Value.String()
		case "openai-base-url":
			cfg.OpenAIBaseURL = f.Value.String()
		case "catalog-api-url":
			cfg.CatalogAPIURL = f.Value.String()
		case "library-url":
			cfg.LibraryURL = f.Value.String()
		case "default-model":
			cfg.DefaultModel = f.Value.String()
		case "system-prompt":
			cfg.SystemPrompt = f.Value.String()
		case "ui-dir":
			cfg.UIDir = f.Value.String()
		case "max-body-bytes":
			cfg.MaxBodyBytes, err = flags.GetInt64(f.Name)
		case "chat-timeout":
			var d time.Duration
			d, err = flags.GetDuration(f.Name)
			cfg.ChatTimeout = config.Duration(d)
		case "upstream-connect-timeout":
			var d time.Duration
			d, err = flags.GetDuration(f.Name)
			cfg.UpstreamConnectTimeout = config.Duration(d)
		case "cors-enabled":
			cfg.CORSEnabled, err = flags.GetBool(f.Name)
		case "cors-origins":
			cfg.CORSOrigins, err = flags.GetStringSlice(f.Name)
		case "cors-methods":
			cfg.CORSMethods, err = flags.GetStringSlice(f.Name)
		case "cors-headers":
			cfg.CORSHeaders, err = flags.GetStringSlice(f.Name)
		}
	})
	return err
}

// serve runs the API on ln until ctx is canceled, then shuts down
// gracefully. In-flight streams are canceled through the base context
// before the listener drains.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger, ln net.Listener) error {
	httpClient := upstream.NewHTTPClient(cfg.UpstreamConnectTimeout.Std())
	ollama := upstream.NewOllamaClient(httpClient)
	openAI := upstream.NewOpenAIClient(cfg.OpenAIBaseURL, httpClient)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(httpapi.Services{
		Chat: relay.NewChatRelay(relay.ChatConfig{
			SystemPrompt:   cfg.SystemPrompt,
			OllamaEndpoint: cfg.OllamaEndpoint,
			OllamaModel:    cfg.DefaultModel,
			OpenAIAPIKey:   cfg.OpenAIAPIKey,
			Timeout:        cfg.ChatTimeout.Std(),
		}, openAI, log.With().Str("component", "chat").Logger()),
		Pull: relay.NewPullRelay(ollama, log.With().Str("component", "pull").Logger()),
		Catalog: catalog.NewAggregator(ollama, log.With().Str("component", "catalog").Logger(),
			catalog.DefaultSources(cfg.CatalogAPIURL, cfg.LibraryURL, httpClient)...),
		Tags:           catalog.NewTagLister(cfg.LibraryURL, httpClient, ollama, log.With().Str("component", "tags").Logger()),
		Inventory:      inventory.NewManager(ollama, log.With().Str("component", "inventory").Logger(), nil),
		OpenAI:         openAI,
		Prober:         ollama,
		OllamaEndpoint: cfg.OllamaEndpoint,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		UIDir:          cfg.UIDir,
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("ollama", cfg.OllamaEndpoint).Msg("localchat listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
