// Command feedgen собирает ленту одного канала и пишет её в файл или stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"feedmaker/internal/builder"
	"feedmaker/internal/config"
	"feedmaker/internal/db"
	"feedmaker/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	channel := flag.String("channel", "", "channel name")
	out := flag.String("out", "", "output file (stdout when empty)")
	format := flag.String("format", "rss", "output format: rss, atom or json")
	flag.Parse()

	if err := run(context.Background(), *configPath, *channel, *out, *format); err != nil {
		logger.Log.Fatalf("feedgen: %v", err)
	}
}

func run(ctx context.Context, configPath, channel, out, format string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if closer := logger.Init(cfg.Logger); closer != nil {
		defer closer.Close()
	}

	ch, ok := cfg.Channel(channel)
	if !ok {
		return fmt.Errorf("channel %q is not configured", channel)
	}

	store, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ListEntries(ctx, ch.Name, ch.ItemLimit())
	if err != nil {
		return err
	}
	f, err := builder.Build(ch, entries, nil)
	if err != nil {
		return err
	}

	switch format {
	case "rss":
		if out != "" {
			return f.Save(out)
		}
		_, err = f.WriteTo(os.Stdout)
		return err
	case "atom", "json":
		render := builder.Atom
		if format == "json" {
			render = builder.JSON
		}
		body, err := render(f)
		if err != nil {
			return err
		}
		if out != "" {
			return os.WriteFile(out, []byte(body), 0o644)
		}
		_, err = io.WriteString(os.Stdout, body)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
