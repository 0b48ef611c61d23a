package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO  = "info"
	ERROR = "error"
	LEVEL = "level"
)

// Event is pushed to every connected viewer. LEVEL events carry the
// per-variant generation state for one asset.
type Event struct {
	Type     string    `json:"type"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	AssetId  string    `json:"assetId,omitempty"`
	Level    int       `json:"level"`
	State    string    `json:"state,omitempty"`
	Progress float32   `json:"progress"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// NewClient registers a websocket connection and replays the last
// event so a late viewer sees current progress immediately.
func NewClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	registerClient(c)
	go c.writePump()
	globalLock.Lock()
	defer globalLock.Unlock()
	if lastMessage != nil {
		c.send <- lastMessage
	}
}

var eventBroadcast chan *Event
var broadcastList map[*client]bool
var globalLock sync.Mutex
var lastMessage []byte = nil

func registerClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	broadcastList[c] = true
}

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

func init() {
	eventBroadcast = make(chan *Event, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for e := range eventBroadcast {
			data, err := json.Marshal(e)
			if err != nil {
				log.Printf("[status] event marshal error: %v", err)
				continue
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default:
					// slow client, drop the event instead of blocking the hub
				}
			}
			globalLock.Unlock()
		}
	}()
}

func broadcast(e *Event) {
	if math.IsNaN(float64(e.Progress)) || math.IsInf(float64(e.Progress), 0) {
		e.Progress = 0
	}
	e.Time = time.Now()
	eventBroadcast <- e
}

func Info(format string, a ...interface{}) {
	broadcast(&Event{Type: INFO, Message: fmt.Sprintf(format, a...)})
}

func Error(format string, a ...interface{}) {
	broadcast(&Event{Type: ERROR, Message: fmt.Sprintf(format, a...)})
}

// Level reports one variant's generation state; progress is the share
// of levels finished so far for this asset.
func Level(assetId string, level int, state string, progress float32, format string, a ...interface{}) {
	broadcast(&Event{
		Type:     LEVEL,
		Message:  fmt.Sprintf(format, a...),
		AssetId:  assetId,
		Level:    level,
		State:    state,
		Progress: progress,
	})
}
