package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/config"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/monitor"
	"github.com/wfunc/survivalserver/persistence"
	gamerpc "github.com/wfunc/survivalserver/rpc"
	"github.com/wfunc/survivalserver/server"
	"github.com/wfunc/survivalserver/services"
	"github.com/wfunc/survivalserver/telemetry"
	"github.com/wfunc/survivalserver/world"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	var configPath string
	root := &cobra.Command{
		Use:           "survival",
		Short:         "Survival game turn server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and RPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})

	var name string
	play := &cobra.Command{
		Use:   "play",
		Short: "Play a session in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return playConsole(cmd.Context(), configPath, name, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	play.Flags().StringVar(&name, "name", "Survivor", "survivor name")
	root.AddCommand(play)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadWorld(cfg *config.Config) (*world.World, error) {
	if cfg.Game.WorldFile != "" {
		return world.LoadFile(cfg.Game.WorldFile)
	}
	return world.Default()
}

func openDatabase(cfg config.DatabaseConfig) (persistence.Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return persistence.NewMemory(), nil
	case "postgres":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "sqlite":
		return persistence.NewSQLite(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	w, err := loadWorld(cfg)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Log.Infow("Database ready", "driver", cfg.Database.Driver)

	mon := monitor.NewMonitor("survival")
	mon.Publish()

	game := services.NewGameService(db, w, mon, services.Options{
		Seed:          cfg.Game.Seed,
		SessionIdle:   cfg.Game.SessionIdle,
		SweepInterval: cfg.Game.SweepInterval,
	})
	game.StartSweeper()
	defer game.Close()

	rpcServer, err := gamerpc.NewServer(cfg.Server.RPCAddress, game)
	if err != nil {
		return fmt.Errorf("rpc server: %w", err)
	}
	go rpcServer.Start()
	defer rpcServer.Stop()

	// metrics share the game port unless a separate address is configured
	metrics := mon.Handler()
	if cfg.Server.MetricsAddress != "" {
		go monitor.Serve(cfg.Server.MetricsAddress, metrics)
		metrics = nil
	}
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, game, metrics)

	errc := make(chan error, 1)
	go func() { errc <- gameServer.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Log.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return gameServer.Shutdown(sctx)
	}
}

// playConsole runs one session against an in-process service.
func playConsole(ctx context.Context, configPath, name string, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	w, err := loadWorld(cfg)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	game := services.NewGameService(db, w, monitor.NewMonitor("survival_console"), services.Options{Seed: cfg.Game.Seed})
	resp, err := game.NewSession(ctx, 0, name)
	if err != nil {
		return err
	}
	printResponse(out, resp)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		token := strings.TrimSpace(scanner.Text())
		switch token {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		next, err := game.Act(ctx, resp.SessionID, token)
		if err != nil {
			fmt.Fprintf(out, "! %s (%s)\n", apperr.Message(err), apperr.GetCode(err))
			continue
		}
		resp = next
		printResponse(out, resp)
		if resp.Summary.Dead {
			fmt.Fprintf(out, "You died: %s.\n", resp.Summary.DeathCause)
			return nil
		}
	}
}

func printResponse(out io.Writer, resp *services.Response) {
	s := resp.Summary
	if resp.Message != "" {
		fmt.Fprintln(out, resp.Message)
	}
	fmt.Fprintf(out, "[day %d %s %s] %s  health %.0f%% energy %.0f%% hunger %.0f%%  (%s)\n",
		s.Day, s.Clock, s.Season, s.Location, s.Health*100, s.Energy*100, s.Hunger*100, resp.Phase)
	for _, o := range resp.Options {
		fmt.Fprintf(out, "  %-18s %s\n", o.ID, o.Label)
	}
}
