// asteroids-server runs a shared multiplayer asteroids world.
//
// Usage:
//
//	asteroids-server                 - Serve the game (TCP lines + websocket/API)
//	asteroids-server scores          - Show the leaderboard
//
// Flags:
//
//	--addr <host:port>  - TCP line protocol address (default: 0.0.0.0:4000)
//	--port <n>          - Shorthand for --addr 0.0.0.0:<n>
//	--http <host:port>  - Websocket and API address, "" disables
//	--db <path>         - SQLite file for accounts and scores
//	--config <path>     - YAML config file
//	--log-level <lvl>   - debug, info, warn or error
//	--seed <n>          - Fixed RNG seed for a reproducible world
//
// ASTEROIDS_ADDR overrides the TCP address after everything else.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagAddr     string
	flagPort     int
	flagHTTP     string
	flagDBPath   string
	flagLogLevel string
	flagSeed     uint64
	flagLimit    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal("exiting", "error", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "asteroids-server",
	Short: "Authoritative multiplayer asteroids server",
	Long: `Runs one shared asteroids world at 20 ticks per second.

Clients connect over TCP with newline-delimited JSON, or over a websocket
at /ws on the HTTP address. With --db, accounts (/api/register, /api/login)
and a leaderboard (/api/scores) are enabled.

Examples:
  asteroids-server
  asteroids-server --port 5000
  asteroids-server --http :8080 --db ./asteroids.db
  ASTEROIDS_ADDR=127.0.0.1:4000 asteroids-server`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the top scores",
	Args:  cobra.NoArgs,
	RunE:  runScores,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to SQLite database (empty disables accounts and scores)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&flagAddr, "addr", defaultAddr, "TCP line protocol address (host:port)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "TCP port on all interfaces (overrides --addr)")
	rootCmd.Flags().StringVar(&flagHTTP, "http", defaultHTTPAddr, "Websocket and API address (empty disables)")
	rootCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = random)")

	scoresCmd.Flags().IntVar(&flagLimit, "limit", defaultScoreLimit, "Number of entries to show")

	rootCmd.AddCommand(scoresCmd)
}

// resolveConfig layers defaults, the config file, changed flags and the
// environment, in that order
func resolveConfig(cmd *cobra.Command) (ServerConfig, error) {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = flagAddr
	}
	if flags.Changed("port") {
		addr, err := PortAddr(flagPort)
		if err != nil {
			return cfg, err
		}
		cfg.Addr = addr
	}
	if flags.Changed("http") {
		cfg.HTTPAddr = flagHTTP
	}
	if flags.Changed("db") {
		cfg.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("seed") {
		cfg.Seed = flagSeed
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func setupLogger(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "asteroids",
		Level:           lvl,
	}))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	var (
		db        *DB
		auth      *Auth
		analytics *Analytics
	)
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		auth, err = NewAuth(db)
		if err != nil {
			return err
		}
		analytics = NewAnalytics(db)
		defer analytics.Stop()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	game := NewGame(rand.New(rand.NewPCG(seed, seed>>1|1)), db, analytics)
	hub := NewHub(game, auth)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	log.Info("server listening", "addr", ln.Addr().String(), "seed", seed)

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		hl, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
		}
		httpSrv = &http.Server{
			Handler:           SetupRoutes(hub, db, auth, analytics),
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Info("http listening", "addr", hl.Addr().String())
		go func() {
			if err := httpSrv.Serve(hl); !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server failed", "error", err)
				stop()
			}
		}()
	}

	go hub.Run(ctx)
	go game.Run(ctx)

	err = hub.ServeLines(ctx, ln)
	log.Info("shutting down")
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}
	return err
}

func runScores(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errors.New("no database configured, pass --db or set db in the config file")
	}
	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	scores, err := db.TopScores(flagLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scores) == 0 {
		fmt.Fprintln(out, "No scores recorded yet.")
		return nil
	}
	fmt.Fprintf(out, "  %-4s  %-16s  %-8s  %-4s  %-5s  %s\n", "Rank", "Name", "Score", "Wave", "Kills", "Date")
	fmt.Fprintf(out, "  %-4s  %-16s  %-8s  %-4s  %-5s  %s\n", "----", "----", "-----", "----", "-----", "----")
	for i, s := range scores {
		fmt.Fprintf(out, "  %-4d  %-16s  %-8d  %-4d  %-5d  %s\n",
			i+1, s.Name, s.Score, s.Wave, s.Kills, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
