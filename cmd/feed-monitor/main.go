package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"libraryhub/pkg/models"
)

// Usage: feed-monitor [ws-url]. The worker access token is read from LIBRARY_TOKEN.
func main() {
	url := "ws://127.0.0.1:8080/ws/circulation"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	token := os.Getenv("LIBRARY_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "LIBRARY_TOKEN must hold a worker access token")
		os.Exit(2)
	}

	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			fmt.Fprintf(os.Stderr, "dial %s: %v (HTTP %d)\n", url, err, resp.StatusCode)
		} else {
			fmt.Fprintf(os.Stderr, "dial %s: %v\n", url, err)
		}
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Feed monitor connected to:", url)
	fmt.Println("Waiting for circulation events...")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					fmt.Println("read error:", err)
				}
				return
			}
			var ev models.CirculationEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				fmt.Printf("RAW: %s\n", data)
				continue
			}
			fmt.Printf("%s %-8s borrow=%d book=%q member=%s\n",
				time.Unix(ev.At, 0).Format(time.RFC3339), ev.Type, ev.BorrowID, ev.Book, ev.Member)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
