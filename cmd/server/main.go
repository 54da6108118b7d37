package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	flag "github.com/spf13/pflag"

	"sockchat/internal/chat"
)

func main() {
	host := flag.String("host", "0.0.0.0", "host to bind to")
	port := flag.IntP("port", "p", defaultPort(), "port to bind to (env CHAT_PORT)")
	httpAddr := flag.String("http-addr", ":9090", "metrics/websocket listen address, empty to disable")
	jsonLogs := flag.Bool("json-logs", true, "emit JSON logs")
	flag.Parse()

	var handler slog.Handler
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)

	srv := chat.NewServer(chat.Config{
		Addr:     *host + ":" + strconv.Itoa(*port),
		HTTPAddr: *httpAddr,
		Logger:   logger,
	})
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}

func defaultPort() int {
	if v := os.Getenv("CHAT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			return p
		}
	}
	return 4000
}
