// ABOUTME: Local answer server for trying bloop without the real search service
// ABOUTME: Usage: fake-answer [-config path] [-addr localhost:7878] [-root .] [-auth]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/2389/bloop-answer/internal/auth"
	"github.com/2389/bloop-answer/internal/config"
	"github.com/2389/bloop-answer/internal/devserver"
	"github.com/2389/bloop-answer/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Config file (default $BLOOP_CONFIG or ~/.config/bloop/config.yaml)")
	addr := flag.String("addr", "", "Listen address (overrides devserver.addr)")
	root := flag.String("root", "", "Directory to search (overrides devserver.corpus_root)")
	tps := flag.Float64("tps", 0, "Tokens per second (overrides devserver.tokens_per_second)")
	requireAuth := flag.Bool("auth", false, "Require a JWT signed with auth.jwt_secret")
	flag.Parse()

	if err := run(*configPath, *addr, *root, *tps, *requireAuth); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, addr, root string, tps float64, requireAuth bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.DevServer.Addr = addr
	}
	if root != "" {
		cfg.DevServer.CorpusRoot = root
	}
	if tps > 0 {
		cfg.DevServer.TokensPerSecond = tps
	}

	logger := logging.New(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	var verifier auth.TokenVerifier
	if requireAuth {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating verifier: %w", err)
		}
		verifier = v
	}

	srv, err := devserver.New(devserver.Config{
		Addr:            cfg.DevServer.Addr,
		CorpusRoot:      cfg.DevServer.CorpusRoot,
		TokensPerSecond: cfg.DevServer.TokensPerSecond,
		MaxSnippets:     cfg.DevServer.MaxSnippets,
		CacheTTL:        cfg.DevServer.CacheTTL,
		Verifier:        verifier,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("creating dev server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx)
}
