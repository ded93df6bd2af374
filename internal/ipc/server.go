package ipc

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/patrislav/marwind/internal/command"
	"github.com/patrislav/marwind/internal/wmcontainer"
)

// Server owns the listening UNIX socket (spec §6's "path advertised via
// I3_SOCKET_PATH"). It queues COMMAND payloads for the reactor to run
// between event-loop turns (spec §5's ordering guarantee) rather than
// running them inline on the accept goroutine, since the tree may only be
// mutated from the single reactor thread. Reads (GET_TREE and friends) are
// answered directly off the live Store — spec §5 reserves mutation, not
// read access, to the reactor thread.
type Server struct {
	Listener net.Listener
	Store    *wmcontainer.Store

	// Wake is signalled (non-blocking) whenever a COMMAND is enqueued, so
	// the reactor's select-driven event loop (spec §5's "readability on the
	// IPC listening and accepted sockets" suspension point) wakes promptly
	// instead of waiting on the next unrelated X event.
	Wake chan struct{}

	mu          sync.Mutex
	queue       []QueuedCommand
	subscribers map[net.Conn][]EventType
}

// QueuedCommand is one COMMAND request waiting for the reactor to run it
// on the single tree-mutating thread (spec §5's ordering guarantee: IPC
// commands queue during the X event batch and run right after it).
type QueuedCommand struct {
	Line    string
	replyCh chan []command.Reply
}

// Respond delivers the executor's replies back to the blocked IPC client.
func (q QueuedCommand) Respond(replies []command.Reply) {
	q.replyCh <- replies
}

// Listen opens the UNIX socket at path, removing any stale socket file
// first (a prior instance's unclean shutdown leaves one behind).
func Listen(path string, store *wmcontainer.Store) (*Server, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Server{
		Listener:    l,
		Store:       store,
		Wake:        make(chan struct{}, 1),
		subscribers: map[net.Conn][]EventType{},
	}, nil
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

// Close shuts down the listener and every subscriber connection.
func (s *Server) Close() {
	s.Listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subscribers {
		conn.Close()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		msgType, payload, err := ReadMessage(conn)
		if err != nil {
			s.mu.Lock()
			delete(s.subscribers, conn)
			s.mu.Unlock()
			return
		}
		s.dispatch(conn, msgType, payload)
	}
}

func (s *Server) dispatch(conn net.Conn, msgType uint32, payload []byte) {
	switch MessageType(msgType) {
	case TypeCommand:
		replies := s.enqueue(string(payload))
		WriteReply(conn, TypeCommand, toCommandReplies(replies))
	case TypeGetWorkspaces:
		WriteReply(conn, TypeGetWorkspaces, DumpWorkspaces(s.Store.Root))
	case TypeGetOutputs:
		WriteReply(conn, TypeGetOutputs, DumpOutputs(s.Store.Root))
	case TypeGetTree:
		WriteReply(conn, TypeGetTree, DumpTree(s.Store.Root))
	case TypeGetMarks:
		WriteReply(conn, TypeGetMarks, marks(s.Store.Root))
	case TypeGetVersion:
		WriteReply(conn, TypeGetVersion, VersionReply{Major: 4, Minor: 0, Patch: 0, HumanReadable: "marwind"})
	case TypeSubscribe:
		s.subscribe(conn, payload)
	case TypeGetBarConfig:
		WriteReply(conn, TypeGetBarConfig, []string{})
	default:
		slog.Warn("ipc: unknown message type", "type", msgType)
	}
}

func (s *Server) subscribe(conn net.Conn, payload []byte) {
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		WriteReply(conn, TypeSubscribe, CommandReply{Success: false, Error: err.Error()})
		return
	}
	var types []EventType
	for name, ev := range map[string]EventType{
		"workspace": EventWorkspace, "output": EventOutput, "mode": EventMode,
		"window": EventWindow, "barconfig_update": EventBarConfigUpdate,
	} {
		for _, n := range names {
			if n == name {
				types = append(types, ev)
			}
		}
	}
	s.mu.Lock()
	s.subscribers[conn] = types
	s.mu.Unlock()
	WriteReply(conn, TypeSubscribe, CommandReply{Success: true})
}

func marks(root *wmcontainer.Container) []string {
	var out []string
	for _, leaf := range wmcontainer.Leaves(root) {
		if leaf.Mark != "" {
			out = append(out, leaf.Mark)
		}
	}
	return out
}

func toCommandReplies(replies []command.Reply) []CommandReply {
	out := make([]CommandReply, len(replies))
	for i, r := range replies {
		out[i] = CommandReply{Success: r.Success, Error: r.Error}
	}
	return out
}

// enqueue queues line for the reactor and blocks until the reactor has run
// it and called QueuedCommand.Respond with the result.
func (s *Server) enqueue(line string) []command.Reply {
	q := QueuedCommand{Line: line, replyCh: make(chan []command.Reply, 1)}
	s.mu.Lock()
	s.queue = append(s.queue, q)
	s.mu.Unlock()
	select {
	case s.Wake <- struct{}{}:
	default:
	}
	return <-q.replyCh
}

// Drain implements reactor.IPCSink: it hands every queued command to the
// reactor, which runs each and calls Respond to unblock the IPC client that
// submitted it.
func (s *Server) Drain() []QueuedCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.queue
	s.queue = nil
	return pending
}

// Publish implements reactor.IPCSink: it fans an event out to every
// subscriber registered for it.
func (s *Server) Publish(event string, v any) {
	var evType EventType
	found := false
	for et, name := range eventNames {
		if name == event {
			evType, found = et, true
		}
	}
	if !found {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, types := range s.subscribers {
		for _, t := range types {
			if t == evType {
				WriteEvent(conn, evType, v)
				break
			}
		}
	}
}
