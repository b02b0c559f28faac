package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/newsdesk"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "compose":
		err = runCompose(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "version":
		fmt.Printf("newsdesk %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`newsdesk - draft news articles with Gemini and publish them to WordPress

Usage:
  newsdesk <command> [arguments]

Commands:
  serve [-config file]     Run the console
  compose -in -out -headline [-credit]
                           Draw a headline onto an image
  init [-dir dir]          Write a starter newsdesk.yaml and .env.example
  version                  Print the newsdesk version
  help                     Show this help message

Examples:
  newsdesk init -name Gazete -site https://news.example.com
  newsdesk serve -config newsdesk.yaml
  newsdesk compose -in photo.png -out cover.jpg -headline "Şehirde yeni park"`)
}

func runServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	path := fset.String("config", newsdesk.EnvOr("NEWSDESK_CONFIG", ""), "YAML config file")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg, err := newsdesk.LoadConfig(*path)
	if err != nil {
		return err
	}
	var opts []newsdesk.Option
	if *path != "" {
		opts = append(opts, newsdesk.WithConfigFile(*path))
	}
	app := newsdesk.New(cfg, opts...)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errc
}
