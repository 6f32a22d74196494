package chat

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 4096
)

// Serve streams the subscriber's messages to conn until the peer disconnects,
// ctx is cancelled or the subscription is closed. Inbound frames are read only
// to process control messages and are otherwise discarded.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, sub *Subscriber) {
	defer h.Unsubscribe(sub)
	defer conn.Close()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(maxInbound)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			conn.Close()
			<-readDone
			return
		case <-readDone:
			return
		case payload, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
				<-readDone
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug("Chat websocket write failed", zap.String("room_id", sub.Room()), zap.Error(err))
				conn.Close()
				<-readDone
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				<-readDone
				return
			}
		}
	}
}
