package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bayanihive/delegation-roulette/api"
	"github.com/bayanihive/delegation-roulette/configuration"
	"github.com/bayanihive/delegation-roulette/constants"
	"github.com/bayanihive/delegation-roulette/core"
)

func main() {
	configPath := flag.String("config", "config.hjson", "path to the configuration file")
	logLevel := flag.String("log", "", "set the desired log level")
	historyFlag := flag.Bool("history", false, "build or refresh the delegation ledger")
	rebuildFlag := flag.Bool("rebuild", false, "with -history, rebuild the ledger from scratch")
	rouletteFlag := flag.Bool("roulette", false, "run the delegation roulette")
	serveFlag := flag.Bool("serve", false, "serve the read-only ledger api")
	dryRunFlag := flag.Bool("dry-run", false, "log intended transfers without broadcasting")
	versionFlag := flag.Bool("version", false, "print version")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("%s -config <path/to/config.hjson> -history\n", os.Args[0])
		fmt.Printf("%s -config <path/to/config.hjson> -roulette -dry-run\n", os.Args[0])
		fmt.Printf("%s -config <path/to/config.hjson> -serve\n", os.Args[0])
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println("delegation-roulette version " + constants.VERSION)
		os.Exit(0)
	}

	config, err := configuration.LoadConfiguration(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}

	if *logLevel != "" {
		config.LogLevel = configuration.GetLogLevel(*logLevel)
	}
	slog.SetLogLoggerLevel(config.LogLevel)

	if *dryRunFlag {
		config.DryRun = true
	}

	engine, err := core.NewEngine(config, core.DefaultEngineOptions)
	if err != nil {
		slog.Error("failed to create engine", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case *historyFlag:
		if err := engine.BuildDelegationHistory(ctx, *rebuildFlag); err != nil {
			os.Exit(1)
		}
	case *rouletteFlag:
		if err := engine.RunRoulette(ctx); err != nil {
			os.Exit(1)
		}
	case *serveFlag:
		app := api.CreatePublicApi(config, engine)

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		_ = app.Shutdown()
	default:
		flag.Usage()
		os.Exit(1)
	}
}
