package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/relay"
	"github.com/ottobit/simbridge/pkg/version"
)

func main() {
	port := flag.Int("port", 3000, "Port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	logFile := flag.String("log-file", "", "Log file path (stdout if empty)")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(log.Options{Level: parsedLogLevel, FilePath: *logFile})
	log.SetDefaultLogger(logger)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down")
		cancel()
	}()

	log.Info("Starting relay version %s", version.Get())

	server := relay.NewServer(relay.NewServerOptions{Port: *port})
	if err := server.Start(ctx); err != nil {
		log.Error("Relay server failed: %v", err)
		os.Exit(1)
	}
}
