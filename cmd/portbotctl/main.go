// Command portbotctl inspects and edits the bot's profile store offline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/macports/portbot/internal/config"
	"github.com/macports/portbot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	open := func(ctx context.Context, driver string) (store.KV, error) {
		if driver == "" {
			driver = cfg.StoreDriver
		}
		return store.Open(ctx, store.Config{
			Driver:        driver,
			Path:          cfg.DBPath,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
			PostgresDSN:   cfg.PostgresDSN,
		})
	}

	if err := newRootCmd(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
