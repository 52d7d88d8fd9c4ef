package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/cliparse"
	"github.com/danielhkuo/campus-ballot/db"
	"github.com/danielhkuo/campus-ballot/ledger"
	"github.com/danielhkuo/campus-ballot/middleware"
	"github.com/danielhkuo/campus-ballot/router"
	"github.com/danielhkuo/campus-ballot/store"
)

func main() {
	var err error

	// Load .env if present; real environment variables win
	if _, statErr := os.Stat(".env"); statErr == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.Info("Configuration loaded", "config", cfg.DebugString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the voter record store
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	voters := store.New(dbConn)
	for _, id := range cfg.AdminUserIDs {
		if err := voters.AddAdmin(ctx, id, ""); err != nil {
			slog.Error("failed to seed administrator", "user_id", id, "error", err)
			os.Exit(1)
		}
	}

	// Votes that reached the ledger without a stored receipt stay locked
	// until an operator reconciles them.
	if claims, err := voters.PendingClaims(ctx, 0); err != nil {
		slog.Warn("failed to check pending vote claims", "error", err)
	} else if len(claims) > 0 {
		slog.Warn("pending vote claims need reconciliation", "count", len(claims))
	}

	l, err := openLedger(ctx, cfg)
	if err != nil {
		slog.Error("ledger connection failed", "error", err)
		os.Exit(1)
	}

	verifier := auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseKey)

	// Create router
	mux := router.NewRouter(dbConn, cfg, verifier, l)

	// Create server
	server := http.Server{
		Handler:           middleware.Recover(middleware.CORS(mux)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Let in-flight votes finish their ledger round trip
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func openLedger(ctx context.Context, cfg cliparse.Config) (router.Ledger, error) {
	if cfg.RPCURL == "" {
		slog.Warn("RPC_URL not set, using in-memory ledger; votes are lost on restart")
		return ledger.NewMemory(nil), nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	contract, err := ledger.Dial(dialCtx, cfg.RPCURL, ledger.ContractConfig{
		Address:    cfg.ContractAddress,
		ABI:        cfg.ContractABI,
		PrivateKey: cfg.AdminPrivateKey,
		GasTipGwei: cfg.GasTipGwei,
		GasCapGwei: cfg.GasCapGwei,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Ledger connected", "rpc", cfg.RPCURL, "contract", cfg.ContractAddress)
	return contract, nil
}
