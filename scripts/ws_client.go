// Package main runs a demo WebSocket client for live sensor updates.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)
	sensorID := os.Getenv("SENSOR_ID")
	if sensorID == "" {
		sensorID = "demo.001"
	}

	// Seed the sensor so the subscription has something to watch
	seed := fmt.Sprintf(`{"readings":[{"detid":%q,"lat":48.137,"lon":11.575,"speed":42,"flow":120,"occupancy":0.04,"speed_limit":50,"timestamp":%q,"road_name":"Demo Ring"}]}`,
		sensorID, time.Now().UTC().Format(time.RFC3339))
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/readings", bytes.NewReader([]byte(seed)))
	req.Header.Set("Content-Type", "application/json")
	if _, err := http.DefaultClient.Do(req); err != nil {
		log.Fatal(err)
	}

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/sensors/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	pl, _ := json.Marshal(map[string]string{"detid": sensorID})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Push a fresh reading to trigger an update
	time.Sleep(500 * time.Millisecond)
	update := fmt.Sprintf(`{"readings":[{"detid":%q,"lat":48.137,"lon":11.575,"speed":17,"flow":310,"occupancy":0.22,"speed_limit":50,"timestamp":%q}]}`,
		sensorID, time.Now().UTC().Format(time.RFC3339))
	updReq, _ := http.NewRequest(http.MethodPost, base+"/v1/readings", bytes.NewReader([]byte(update)))
	updReq.Header.Set("Content-Type", "application/json")
	_, _ = http.DefaultClient.Do(updReq)

	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
