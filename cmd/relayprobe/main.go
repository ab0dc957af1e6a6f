// relayprobe connects to a running relay and streams messages to the
// console. Usage:
//
//	go run ./cmd/relayprobe -url ws://localhost:8090/ws -user u1 -token <jwt>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	relayURL := flag.String("url", "ws://localhost:8090/ws", "relay websocket URL")
	userID := flag.String("user", "", "user id")
	token := flag.String("token", "", "api credential")
	subscribe := flag.String("subscribe", "", "comma-separated symbols to subscribe after connect")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *userID == "" || *token == "" {
		logger.Error("-user and -token are required")
		os.Exit(1)
	}

	u, err := url.Parse(*relayURL)
	if err != nil {
		logger.Error("bad relay URL", "error", err)
		os.Exit(1)
	}
	q := u.Query()
	q.Set("userId", *userID)
	q.Set("apiKey", *token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Error("dial failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "url", u.Host)

	if *subscribe != "" {
		frame := map[string]any{
			"kind":    "subscribe",
			"symbols": strings.Split(*subscribe, ","),
		}
		if err := conn.WriteJSON(frame); err != nil {
			logger.Error("subscribe failed", "error", err)
			os.Exit(1)
		}
	}

	// Keep liveness fresh while we watch the stream.
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			conn.WriteJSON(map[string]any{"kind": "ping"})
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("connection closed", "error", err)
			return
		}

		var msg struct {
			Kind      string          `json:"kind"`
			Timestamp int64           `json:"timestamp"`
			Data      json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("unparseable message", "error", err)
			continue
		}

		if *verbose {
			fmt.Printf("%s %s\n", msg.Kind, data)
		} else {
			fmt.Printf("%s  kind=%s bytes=%d\n",
				time.UnixMilli(msg.Timestamp).Format(time.TimeOnly),
				msg.Kind, len(data),
			)
		}
	}
}
