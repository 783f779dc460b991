package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabricmon/telemetry/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamEvent is pushed to stream subscribers whenever a new snapshot
// is installed.
type streamEvent struct {
	SnapshotID string `json:"snapshot_id"`
	CapturedAt int64  `json:"captured_at_ms"`
	Switches   int    `json:"switches"`
}

// handleStream upgrades to a websocket and pushes snapshot metadata on
// every content change. The current snapshot, if any, is pushed
// immediately on connect.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	updates := make(chan store.Update, 8)
	s.store.Subscribe(updates)
	defer s.store.Unsubscribe(updates)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("stream upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Notice client closes: the read loop fails when the peer goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap, _, ok := s.store.Read(); ok {
		ev := streamEvent{
			SnapshotID: snap.SnapshotID,
			CapturedAt: snap.CapturedAt.UnixMilli(),
			Switches:   len(snap.Rows),
		}
		if err := s.writeEvent(conn, ev); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case u := <-updates:
			ev := streamEvent{
				SnapshotID: u.SnapshotID,
				CapturedAt: u.CapturedAt.UnixMilli(),
				Switches:   u.Switches,
			}
			if err := s.writeEvent(conn, ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, ev streamEvent) error {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(ev); err != nil {
		s.logger.Debug("stream write failed", "err", err)
		return err
	}
	return nil
}
