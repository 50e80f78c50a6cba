// Command providerkey stores a text-to-speech or avatar API key in the
// integration_tokens table, where the api and worker fall back to it when
// the environment does not set one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"reelmate/internal/adapter/repo"
	"reelmate/internal/infra"
	"reelmate/internal/infra/credentials"
)

var envByProvider = map[string]string{
	credentials.ProviderOpenAI: "OPENAI_API_KEY",
	credentials.ProviderAvatar: "AVATAR_API_KEY",
}

func main() {
	var keyFlag, providerFlag string
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to the environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderOpenAI, "Provider to configure (openai or avatar)")
	flag.Parse()

	_ = godotenv.Load()

	provider := strings.ToLower(strings.TrimSpace(providerFlag))
	envName, ok := envByProvider[provider]
	if !ok {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}
	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envName))
	}
	if key == "" {
		fmt.Fprintf(os.Stderr, "%s key is required via -key or %s\n", provider, envName)
		os.Exit(1)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JobStore != infra.JobStorePostgres {
		fmt.Fprintln(os.Stderr, "provider keys are stored in postgres; set DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "providerkey").Str("provider", provider).Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if err := repo.NewJobRepository(runner).EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "prepare schema: %v\n", err)
		os.Exit(1)
	}
	if err := credentials.NewStore(runner).SetToken(ctx, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "store %s key: %v\n", provider, err)
		os.Exit(1)
	}
	fmt.Printf("%s API key stored\n", provider)
}
