package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ottobit/simbridge/pkg/log"
	"github.com/ottobit/simbridge/pkg/messages"
	"github.com/ottobit/simbridge/pkg/queue"
	"nhooyr.io/websocket"
)

const broadcastQueueSize = 1024

// Server is the actions relay: clients join a room over a WebSocket and
// actions frames from one member are pushed to every other member of the
// same room. The relay is live-only; nothing is stored or replayed.
type Server struct {
	port           int
	hub            *Hub
	broadcastQueue queue.Queue
}

type NewServerOptions struct {
	Port int
}

func NewServer(opts NewServerOptions) *Server {
	return &Server{
		port:           opts.Port,
		hub:            NewHub(),
		broadcastQueue: queue.NewInMemoryQueue(broadcastQueueSize),
	}
}

// Handler returns the HTTP routes. Exposed separately so tests can mount the
// relay on an httptest server.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/socket.io", func(w http.ResponseWriter, req *http.Request) {
		s.handleSocket(ctx, w, req)
	})
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	r.HandleFunc("/rooms", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.hub.RoomCounts()); err != nil {
			log.Error("Failed to encode room stats: %v", err)
		}
	})
	return r
}

// Start runs the relay until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	go NewBroadcastWorker(NewBroadcastWorkerOptions{
		Hub:            s.hub,
		BroadcastQueue: s.broadcastQueue,
	}).Start(ctx)

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: s.Handler(ctx)}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info("Relay server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Relay server closed")
			return nil
		}
		return fmt.Errorf("relay server error: %v", err)
	}
	return nil
}

// StartWorker runs only the broadcast worker, for use with Handler on an
// external HTTP server.
func (s *Server) StartWorker(ctx context.Context) {
	go NewBroadcastWorker(NewBroadcastWorkerOptions{
		Hub:            s.hub,
		BroadcastQueue: s.broadcastQueue,
	}).Start(ctx)
}

func (s *Server) handleSocket(ctx context.Context, w http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Failed to accept WebSocket: %v", err)
		return
	}
	log.Debug("New relay connection from %s", req.RemoteAddr)
	go s.handleConnection(ctx, conn)
}

// handleConnection expects a join frame first, then relays actions frames.
// Anything malformed drops the connection; this is transport noise, not a
// user-visible failure.
func (s *Server) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, b, err := conn.Read(ctx)
	if err != nil {
		return
	}
	frame := &messages.RelayFrame{}
	if err := json.Unmarshal(b, frame); err != nil || frame.Event != messages.RelayEventJoin {
		log.Debug("Dropping connection without join frame")
		return
	}
	join := &messages.RelayJoinData{}
	if err := json.Unmarshal(frame.Data, join); err != nil || join.ID == "" {
		log.Debug("Dropping connection with malformed join data")
		return
	}

	c := newClient(join.ID, conn)
	s.hub.add(c)
	defer s.hub.remove(c)

	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			log.Trace("Relay connection closed for client %s", c.id)
			return
		}

		frame := &messages.RelayFrame{}
		if err := json.Unmarshal(b, frame); err != nil {
			log.Debug("Dropping malformed relay frame: %v", err)
			continue
		}
		if frame.Event != messages.RelayEventActions {
			continue
		}

		if err := s.broadcastQueue.Enqueue(&broadcastRequest{
			roomID:   c.roomID,
			senderID: c.id,
			frame:    b,
		}); err != nil {
			log.Warn("Dropping actions frame: %v", err)
		}
	}
}
