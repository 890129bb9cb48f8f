package web

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/schip"
)

const writeWait = time.Second

// Boot implements Display.
func (server *Server) Boot() error {
	return nil
}

func (server *Server) addViewer(conn *websocket.Conn) {
	server.viewersMu.Lock()
	defer server.viewersMu.Unlock()

	server.viewers[conn] = struct{}{}
}

func (server *Server) removeViewer(conn *websocket.Conn) {
	server.viewersMu.Lock()
	defer server.viewersMu.Unlock()

	delete(server.viewers, conn)
}

// Viewers is the number of connected displays
func (server *Server) Viewers() int {
	server.viewersMu.Lock()
	defer server.viewersMu.Unlock()

	return len(server.viewers)
}

// Render implements Display.
// Every frame is sent as [width, height, pixels...], one byte per pixel.
func (server *Server) Render(screen schip.Screen, settings schip.ScreenSettings) error {
	server.viewersMu.Lock()
	defer server.viewersMu.Unlock()

	if len(server.viewers) == 0 {
		return nil
	}

	frame := make([]byte, 0, len(screen)+2)
	frame = append(frame, byte(settings.Width), byte(settings.Height))
	frame = append(frame, screen...)

	for conn := range server.viewers {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			// viewers that cannot keep up are dropped
			slog.Warn("dropping display", slog.Any("error", err))
			delete(server.viewers, conn)
			conn.Close()
		}
	}

	return nil
}
