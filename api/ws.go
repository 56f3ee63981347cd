package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/warp/shift-earnings/tracking"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512

	tickBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced on the REST routes; the stream is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveTracker streams the tracker readout over a WebSocket: one "status"
// frame on connect, then a "tick" frame per tracker tick.
// GET /api/tracker/live
func (h *Handler) LiveTracker(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ticks, unsubscribe := h.Tracker.Subscribe(tickBuffer)
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)

	h.logger.DebugContext(r.Context(), "live tracker connected", "remote", r.RemoteAddr)
	if err := writeFrame(conn, statusFrame(h.Tracker.Status(), h.now())); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			if err := writeFrame(conn, tickFrame(tick)); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles pongs and notices when the peer goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, msg LiveMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func statusFrame(st tracking.Status, at time.Time) LiveMessage {
	msg := LiveMessage{
		Type:           "status",
		State:          st.State,
		Elapsed:        formatElapsed(st.Elapsed),
		ElapsedSeconds: int64(st.Elapsed / time.Second),
		Earnings:       st.Earnings,
		At:             at,
	}
	if st.Shift != nil {
		msg.ShiftID = st.Shift.ID
		msg.JobID = st.Shift.JobID
	}
	return msg
}

func tickFrame(t tracking.Tick) LiveMessage {
	return LiveMessage{
		Type:           "tick",
		State:          tracking.StateTracking,
		ShiftID:        t.ShiftID,
		JobID:          t.JobID,
		Elapsed:        formatElapsed(t.Elapsed),
		ElapsedSeconds: int64(t.Elapsed / time.Second),
		Earnings:       t.Earnings,
		At:             t.At,
	}
}
