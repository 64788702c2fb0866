package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/artshin/app-log-service/pkg/relaylog"
)

type sampleLine struct {
	level   string
	message string
	tags    []string
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:9006", "relay base URL")
	token := flag.String("token", "", "bearer token, empty for an open relay")
	device := flag.String("device", "demo-device", "device id stamped on entries")
	rounds := flag.Int("rounds", 3, "how many times to replay the sample set")
	flag.Parse()

	logger, err := relaylog.New(relaylog.Options{
		Sender:        relaylog.NewHTTPSender(*baseURL, *token),
		Source:        "demo-feed",
		DeviceID:      *device,
		BatchSize:     8,
		FlushInterval: 500 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Close()

	lines := []sampleLine{
		{level: "info", message: "app launched", tags: []string{"lifecycle"}},
		{level: "debug", message: "config loaded from cache"},
		{level: "notice", message: "session refreshed", tags: []string{"auth"}},
		{level: "warning", message: "retrying request after timeout", tags: []string{"network"}},
		{level: "error", message: "upload failed, will retry", tags: []string{"network", "sync"}},
		{level: "info", message: "background sync complete", tags: []string{"sync"}},
	}

	for round := 1; round <= *rounds; round++ {
		for i, line := range lines {
			logger.Log(relaylog.Entry{
				Level:   line.level,
				Message: fmt.Sprintf("%s (round %d)", line.message, round),
				Tags:    line.tags,
				Metadata: map[string]string{
					"round": fmt.Sprintf("%d", round),
					"seq":   fmt.Sprintf("%d", i+1),
				},
			})
		}
		time.Sleep(200 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := logger.Flush(ctx); err != nil {
		log.Fatalf("flush: %v", err)
	}
	if dropped := logger.Dropped(); dropped > 0 {
		log.Printf("dropped %d entries on a full queue", dropped)
	}
	log.Printf("fed %d entries to %s", *rounds*len(lines), *baseURL)
}
