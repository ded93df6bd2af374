// Command marwind is the dynamic tiling window manager's entry point:
// connection setup, config loading, core wiring, and the reactor's event
// loop (spec §6's CLI surface).
//
// Grounded on banksean-sand/cmd/sand/main.go's kong.Parse/initSlog
// structure, collapsed to marwind's flags-only CLI (no subcommands) per
// spec §6.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/alecthomas/kong"

	"github.com/patrislav/marwind/internal/adopt"
	"github.com/patrislav/marwind/internal/command"
	"github.com/patrislav/marwind/internal/config"
	"github.com/patrislav/marwind/internal/focus"
	"github.com/patrislav/marwind/internal/ipc"
	"github.com/patrislav/marwind/internal/reactor"
	"github.com/patrislav/marwind/internal/snapshot"
	"github.com/patrislav/marwind/internal/wmcontainer"
	"github.com/patrislav/marwind/internal/wmerr"
	"github.com/patrislav/marwind/internal/wmlog"
	"github.com/patrislav/marwind/internal/workspace"
	"github.com/patrislav/marwind/internal/xconn"
)

// CLI is the flags-only surface spec §6 names; there are no subcommands,
// only a positional COMMAND sent over IPC to an already-running instance.
type CLI struct {
	Config          string   `short:"c" placeholder:"<path>" help:"path to the config file"`
	ValidateOnly    bool     `short:"C" help:"parse the config and exit without starting"`
	NoAutostart     bool     `short:"a" help:"disable autostart of the configured exec commands"`
	RestoreLayout   string   `short:"L" placeholder:"<path>" help:"restore a layout snapshot on startup"`
	Restart         string   `placeholder:"<path>" help:"internal: re-exec with a serialized layout"`
	Version         bool     `short:"v" help:"print version and exit"`
	GetSocketPath   bool     `help:"print I3_SOCKET_PATH and exit"`
	Command         []string `arg:"" optional:"" help:"command sent to a running instance over IPC"`
}

const version = "marwind 1.0.0"

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Description("a dynamic tiling window manager for X11"))

	if cli.Version {
		fmt.Println(version)
		return
	}

	logger := wmlog.New(wmlog.DefaultOptions(os.Getenv("MARWIND_LOG")))

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if cli.ValidateOnly {
		fmt.Println("config OK")
		return
	}

	socketPath := socketPath()
	if cli.GetSocketPath {
		fmt.Println(socketPath)
		return
	}

	if len(cli.Command) > 0 {
		os.Exit(sendCommand(socketPath, strings.Join(cli.Command, " ")))
	}

	if err := run(cli, cfg, socketPath, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.YAMLLoader{}.Load(path)
}

func socketPath() string {
	if p := os.Getenv("I3SOCK"); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("marwind-%d.sock", os.Getpid()))
}

// run wires C1-C7 together and drives the reactor's event loop. Exit code
// 1 on any connection/IPC failure, per spec §6.
func run(cli CLI, cfg *config.Config, socketPath string, logger *slog.Logger) error {
	conn, err := xconn.Connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := conn.BecomeWM(); err != nil {
		return fmt.Errorf("become wm: %w", err)
	}

	store := wmcontainer.NewStore()
	output := wmcontainer.NewContainer(wmcontainer.KindOutput)
	output.Name = "default"
	output.Rect = wmcontainer.Rect{
		W: uint32(conn.Screen.WidthInPixels),
		H: uint32(conn.Screen.HeightInPixels),
	}
	if err := store.Attach(output, store.Root, false); err != nil {
		return err
	}
	// Top and bottom DOCKAREAs (spec §3's DOCKAREA kind, §4.5 step 5's dock
	// placement) must exist before any MapRequest for a panel/bar window
	// arrives, or adopt.Adopter.placeDock has nowhere to attach it.
	if err := store.Attach(wmcontainer.NewContainer(wmcontainer.KindDockArea), output, false); err != nil {
		return err
	}
	if err := store.Attach(wmcontainer.NewContainer(wmcontainer.KindDockArea), output, false); err != nil {
		return err
	}
	content := wmcontainer.NewContainer(wmcontainer.KindContent)
	if err := store.Attach(content, output, false); err != nil {
		return err
	}

	tracker := focus.NewTracker()
	workspaces := workspace.NewManager(store, cfg, nil)
	ws, _, err := workspaces.Get("1", output)
	if err != nil {
		return err
	}
	if err := workspaces.Show(ws); err != nil {
		return err
	}

	if cli.RestoreLayout != "" {
		restoreLayout(cli.RestoreLayout, workspaces, output, logger)
	}
	if cli.Restart != "" {
		restoreLayout(cli.Restart, workspaces, output, logger)
	}

	adopter := adopt.NewAdopter(store, workspaces, cfg, conn)
	executor := &command.Executor{
		Store:      store,
		Focus:      tracker,
		Notifier:   conn,
		Workspaces: workspaces,
		Config:     cfg,
		Closer:     conn,
	}

	server, err := ipc.Listen(socketPath, store)
	if err != nil {
		return fmt.Errorf("ipc listen: %w", wmerr.ErrXConnectionLost)
	}
	defer server.Close()
	go server.Serve()

	r := reactor.New(conn, store, tracker, workspaces, cfg, adopter, executor, server)
	r.FocusFollowsMouse = cfg.FocusFollowsMouse

	if err := conn.GrabKeys(cfg.Keybindings); err != nil {
		logger.Warn("grab keys failed", "err", err)
	}

	existing, err := conn.QueryTree()
	if err != nil {
		logger.Warn("query tree failed", "err", err)
	}
	for _, id := range existing {
		if _, err := adopter.Adopt(id, output, ws); err != nil {
			logger.Warn("adopt existing window failed", "window", id, "err", err)
		}
	}

	logger.Info("marwind started", "socket", socketPath)

	events := make(chan xgb.Event, 32)
	connErrs := make(chan error, 1)
	go func() {
		for {
			ev, err := conn.NextEvent()
			if err != nil {
				connErrs <- err
				return
			}
			events <- ev
		}
	}()

	// ignoreGC is the timer suspension point spec §5 names ("a timer for
	// the 5-second ignore-table GC..."): it wakes the loop even when
	// neither X nor IPC has anything pending, so a stale ignore-table entry
	// doesn't linger until the next unrelated event.
	ignoreGC := time.NewTicker(time.Second)
	defer ignoreGC.Stop()

	for {
		select {
		case ev := <-events:
			r.HandleEvent(ev)
		case err := <-connErrs:
			return fmt.Errorf("%w: %v", wmerr.ErrXConnectionLost, err)
		case <-server.Wake:
		case <-ignoreGC.C:
		}
		r.PumpIPC()
		r.Settle()
	}
}

func restoreLayout(path string, workspaces *workspace.Manager, output *wmcontainer.Container, logger *slog.Logger) {
	snap, err := snapshot.Read(path)
	if err != nil {
		logger.Warn("restore failed, starting empty", "err", wmerr.ErrRestoreFailure, "cause", err)
		return
	}
	for _, shape := range snap.Workspaces() {
		if shape.Name == "1" {
			continue // the default workspace created in run already covers it
		}
		if _, _, err := workspaces.Get(shape.Name, output); err != nil {
			logger.Warn("restore workspace failed", "name", shape.Name, "err", err)
		}
	}
}

// sendCommand connects to a running instance's IPC socket and sends line
// as a COMMAND request, printing the JSON reply. Exit code 1 on connection
// failure, 0 on a successful round trip (spec §6).
func sendCommand(socketPath, line string) int {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()
	if err := ipc.WriteMessage(conn, uint32(ipc.TypeCommand), []byte(line)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	_, payload, err := ipc.ReadMessage(conn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(string(payload))
	return 0
}
