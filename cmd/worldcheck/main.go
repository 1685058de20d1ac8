package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/immersive-chess/internal/worldlink"
)

func main() {
	baseURL := os.Getenv("WORLD_BASE_URL")
	wsURL := os.Getenv("WORLD_WS_URL")
	token := os.Getenv("WORLD_TOKEN")

	if baseURL == "" {
		log.Fatal("WORLD_BASE_URL is required")
	}

	var headers worldlink.HeaderProvider
	if token != "" {
		headers = worldlink.BearerToken(token)
	}

	client := worldlink.NewClient(baseURL,
		worldlink.WithHeaderProvider(headers),
		worldlink.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := client.Status(ctx)
	if err != nil {
		log.Printf("/status error: %v", err)
	} else {
		log.Printf("/status ok: version=%s world=%s players=%d", st.Version, st.World, len(st.Players))
	}

	if wsURL == "" {
		log.Println("WORLD_WS_URL not set; skipping stream check")
		return
	}

	stream := worldlink.NewStream(wsURL, 5, time.Second)
	stream.SetHeaderProvider(headers)
	stream.OnStateChange(func(state worldlink.StreamState) {
		log.Printf("stream state: %s", state)
	})
	stream.OnEvent(func(e *worldlink.Event) {
		fmt.Printf("event id=%s kind=%s player=%s pos=%s\n", e.ID, e.Kind, e.Player, e.Pos)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := stream.Connect(cctx); err != nil {
		log.Printf("stream connect error: %v", err)
		return
	}

	// observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = stream.Close(context.Background())
}
