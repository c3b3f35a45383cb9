package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"

	"DrawStudio/internal/config"
	"DrawStudio/internal/logging"
	"DrawStudio/internal/net"
	"DrawStudio/internal/session"
	"DrawStudio/internal/state"
	"DrawStudio/internal/ui"
)

// HostID is the owner id of actions drawn on the host.
const HostID = "host"

const findTimeout = 3 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to a TOML settings file")
	debug := flag.Bool("debug", false, "Log debug messages")
	find := flag.Bool("find", false, "Join the first host found on the local network")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.Set(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			return 1
		}
	}

	link := flag.Arg(0)
	if *find && link == "" {
		found, err := net.FindHost(findTimeout, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "No host found: %v\n", err)
			return 1
		}
		link = found
	}

	var err error
	if strings.HasPrefix(link, net.Scheme) {
		err = runClient(cfg, *configPath, link)
	} else {
		err = runHost(cfg, *configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runHost(cfg config.Config, configPath string) error {
	logger := logging.L()
	logger.Info("starting as host")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := net.NewHost(logger)
	board, err := ui.NewBoardWidget(cfg, session.StudioConfig{
		Session: session.Config{
			Log:    state.NewLog(state.NewClock(HostID), logger),
			Logger: logger,
			// Everything drawn here goes to every client.
			OnCommit: func(a state.DrawAction) {
				host.Broadcast(net.NewMessage(a))
			},
		},
	})
	if err != nil {
		return err
	}

	host.OnMessage = func(m net.Message) error {
		if m.Action == nil {
			return fmt.Errorf("%s message from %s without action", m.Type, m.OwnerID)
		}
		return board.ApplyRemote(*m.Action)
	}
	// Late joiners get the drawing so far.
	host.OnJoin = func(p *net.Peer) {
		for _, a := range board.Studio().Actions() {
			if err := p.Send(net.NewMessage(a)); err != nil {
				logger.Warn("backlog not delivered", "peer", p.RemoteAddr(), "err", err)
				return
			}
		}
	}

	go func() {
		if err := host.ListenAndServe(ctx, cfg.Share.Port); err != nil {
			logger.Error("host server stopped", "err", err)
			board.SetStatus(fmt.Sprintf("Sharing unavailable: %v", err))
		}
	}()

	if srv, err := net.Advertise(cfg.Share.Name, cfg.Share.Port); err != nil {
		logger.Warn("mDNS advertising failed", "err", err)
	} else {
		defer func() { _ = srv.Shutdown() }()
	}

	hostIP, err := net.GetOutgoingIP()
	if err != nil {
		logger.Warn("no local address", "err", err)
		hostIP = "127.0.0.1"
	}
	shareLink := net.ShareLink(fmt.Sprintf("%s:%d", hostIP, cfg.Share.Port))
	logger.Info("share link", "link", shareLink)

	runApp(cfg, configPath, board, shareLink)
	return nil
}

func runClient(cfg config.Config, configPath, link string) error {
	logger := logging.L()
	logger.Info("starting as client", "link", link)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var conn atomic.Pointer[net.Client]
	board, err := ui.NewBoardWidget(cfg, session.StudioConfig{
		Session: session.Config{
			Logger: logger,
			OnCommit: func(a state.DrawAction) {
				c := conn.Load()
				if c == nil {
					return
				}
				if err := c.Send(net.NewMessage(a)); err != nil {
					logger.Warn("failed to send drawing", "id", a.ID, "err", err)
				}
			},
		},
	})
	if err != nil {
		return err
	}

	go connectToHost(ctx, link, board, &conn)
	runApp(cfg, configPath, board, "")
	if c := conn.Load(); c != nil {
		c.Close()
	}
	return nil
}

func connectToHost(ctx context.Context, link string, board *ui.BoardWidget, conn *atomic.Pointer[net.Client]) {
	logger := logging.L()
	time.Sleep(500 * time.Millisecond) // Give UI time to launch

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := net.Dial(dialCtx, link, logger)
	cancel()
	if err != nil {
		board.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	conn.Store(c)
	defer conn.Store(nil)

	board.SetStatus("Connected to host as " + c.LocalAddr())
	logger.Info("client connected", "local", c.LocalAddr())

	err = c.Run(func(m net.Message) {
		if m.Action == nil {
			return
		}
		_ = board.ApplyRemote(*m.Action)
	})
	board.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
}

// runApp shows the board until the window closes, reloading settings from
// configPath when the file changes.
func runApp(cfg config.Config, configPath string, board *ui.BoardWidget, shareLink string) {
	logger := logging.L()
	var watcher *config.Watcher
	ui.RunApp(cfg, board, shareLink, func(w *ui.Window) {
		if configPath == "" {
			return
		}
		var err error
		watcher, err = config.Watch(configPath, config.DefaultWatchDebounce,
			func(c config.Config) {
				logger.Info("configuration reloaded", "path", configPath)
				fyne.Do(func() { w.Reload(c) })
			},
			func(err error) {
				logger.Warn("configuration not reloaded", "err", err)
				board.SetStatus(fmt.Sprintf("Config error: %v", err))
			})
		if err != nil {
			logger.Warn("configuration watch unavailable", "err", err)
		}
	})
	if watcher != nil {
		watcher.Stop()
	}
}
