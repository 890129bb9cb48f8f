package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/schip"
	"golang.org/x/sync/errgroup"
)

//go:embed static
var static embed.FS

var upgrader = websocket.Upgrader{} // use default options

type Server struct {
	*schip.DummyBuzzer

	cpu       *schip.Cpu
	presenter *schip.Presenter
	speed     int
	staticDir string

	viewersMu sync.Mutex
	viewers   map[*websocket.Conn]struct{}
}

type ServerConfig struct {
	// Speed of the CPU in instructions per second
	Speed int
	// StaticDir replaces the bundled page when set
	StaticDir  string
	CpuOptions []schip.Option
}
type ServerConfigCb func(config *ServerConfig)

func NewServer(mem *schip.Memory, configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		Speed: schip.DefaultSpeed,
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		DummyBuzzer: schip.NewDummyBuzzer(),

		cpu:       schip.NewCpu(mem, config.CpuOptions...),
		speed:     config.Speed,
		staticDir: config.StaticDir,
		viewers:   make(map[*websocket.Conn]struct{}),
	}
	s.presenter = schip.NewPresenter(s.cpu, s, s.DummyBuzzer)

	return s
}

func (server *Server) Cpu() *schip.Cpu {
	return server.cpu
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	return server.cpu.LoadProgram(program)
}

// Status is the body of every control endpoint
type Status struct {
	Running bool   `json:"running"`
	Cycles  uint64 `json:"cycles"`
	Speed   int    `json:"speed"`
	Error   string `json:"error,omitempty"`
}

func (server *Server) status() Status {
	st := Status{
		Running: server.cpu.IsRunning(),
		Cycles:  server.cpu.Cycles(),
		Speed:   server.speed,
	}
	if err := server.cpu.Err(); err != nil {
		st.Error = err.Error()
	}

	return st
}

func writeStatus(w http.ResponseWriter, code int, st Status) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Type")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(st); err != nil {
		slog.Warn("could not write the status", slog.Any("error", err))
	}
}

func (server *Server) control(w http.ResponseWriter, err error) {
	code := http.StatusOK
	switch {
	case errors.Is(err, schip.ErrAlreadyRunning):
		code = http.StatusConflict
	case err != nil:
		code = http.StatusUnprocessableEntity
	}

	writeStatus(w, code, server.status())
}

// Handler returns the routes of the console
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if server.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(server.staticDir)))
	} else {
		root, _ := fs.Sub(static, "static")
		mux.Handle("GET /", http.FileServer(http.FS(root)))
	}

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, server.status())
	})
	mux.HandleFunc("POST /start", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Starting", slog.Int("speed", server.speed))
		server.control(w, server.cpu.Start(server.speed))
	})
	mux.HandleFunc("POST /stop", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Stopping")
		server.control(w, server.cpu.Stop())
	})
	mux.HandleFunc("POST /reset", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Stopping and resetting")
		server.cpu.Stop()
		server.control(w, server.cpu.Reset())
	})
	mux.HandleFunc("POST /step", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Single step")
		server.control(w, server.cpu.Step())
	})
	mux.HandleFunc("GET /display", server.serveDisplay)
	mux.HandleFunc("GET /keys", server.serveKeys)

	return mux
}

func (server *Server) serveDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	slog.Info("Connecting to display", slog.String("remote", r.RemoteAddr))
	server.addViewer(conn)
	defer server.removeViewer(conn)

	// the client never talks, reading only notices when it leaves
	for {
		if _, _, err := conn.NextReader(); err != nil {
			slog.Info("Disconnecting from display", slog.String("remote", r.RemoteAddr))
			return
		}
	}
}

type keyEvent struct {
	Key  int  `json:"key"`
	Down bool `json:"down"`
}

func (server *Server) serveKeys(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	slog.Info("Connecting to keyboard", slog.String("remote", r.RemoteAddr))
	keypad := server.cpu.Keypad
	for {
		var ev keyEvent
		if err := conn.ReadJSON(&ev); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				slog.Warn("malformed key event", slog.Any("error", err))
				continue
			}
			slog.Info("Disconnecting from keyboard", slog.String("remote", r.RemoteAddr))
			return
		}
		if ev.Key < 0 || ev.Key >= schip.KeyCount {
			continue
		}

		if ev.Down {
			keypad.Press(byte(ev.Key))
		} else {
			keypad.Release(byte(ev.Key))
		}
	}
}

// Run serves the console on port and presents frames until ctx is done
func (server *Server) Run(ctx context.Context, port int) error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.presenter.Run(ctx)
	})
	g.Go(func() error {
		slog.Info("Listening on port", slog.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if stopErr := server.cpu.Stop(); err == nil {
		err = stopErr
	}

	return err
}
