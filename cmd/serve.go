package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"animstory/internal/config"
	"animstory/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the generation proxy server",
	Long: `Start the AnimStory proxy server. It exposes /api/story, /api/image,
/api/video-start and /api/video-poll and keeps provider credentials server-side.
Use --ai-provider mock to run without credentials.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "server mode (debug/release/test)")
	flags.StringSlice("allowed-origins", nil, "CORS allowed origins (empty allows any)")

	flags.String("ai-provider", "ark", "AI provider (ark/openai/azure/mock)")
	flags.String("ai-model", "", "story model name")
	flags.String("ai-api-key", "", "AI API key (recommend using env: ANIMSTORY_AI_API_KEY)")
	flags.String("ark-base-url", "", "Ark endpoint for image and video generation")

	flags.String("redis-addr", "", "Redis address for caching finished video polls (empty disables)")

	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")

	for key, name := range map[string]string{
		"server.host":            "host",
		"server.port":            "port",
		"server.mode":            "mode",
		"server.allowed_origins": "allowed-origins",
		"ai.provider":            "ai-provider",
		"ai.model":               "ai-model",
		"ai.api_key":             "ai-api-key",
		"ai.ark_base_url":        "ark-base-url",
		"redis.addr":             "redis-addr",
		"log.level":              "log-level",
		"log.format":             "log-format",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := listenAddr(&cfg.Server)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("provider", cfg.AI.Provider).
		Bool("redis", cfg.Redis.Addr != "").
		Strs("allowed_origins", cfg.Server.AllowedOrigins).
		Msg("starting proxy server")

	return srv.Run(ctx, addr)
}

// listenAddr 拼接监听地址，兼容 IPv6 主机
func listenAddr(cfg *config.ServerConfig) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
