package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"sftledger/config"
	"sftledger/core/state"
	"sftledger/native/royalty"
	"sftledger/native/token"
	"sftledger/observability"
	"sftledger/observability/logging"
	"sftledger/rpc"
	"sftledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SFT_ENV"))
	logger := logging.Setup("sftd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("dataDir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := observability.NewLogEmitter(logger)

	ledger := token.NewLedger(manager)
	ledger.SetEmitter(emitter)
	ledger.RegisterCapability(royalty.CapabilityDisclosure)

	registry := royalty.NewRegistry(manager)
	registry.SetEmitter(emitter)

	if err := seedDefaultRoyalty(cfg, registry, logger); err != nil {
		logger.Error("failed to seed default royalty", slog.Any("error", err))
		os.Exit(1)
	}

	minter := royalty.NewBatchMinter(registry, ledger)
	minter.SetEmitter(emitter)

	logger.Info("ledger initialised",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
	)

	server := rpc.NewServer(ledger, registry, minter)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// seedDefaultRoyalty installs the configured fallback royalty record, but only
// when the registry holds none yet: stored state wins over configuration on
// restarts.
func seedDefaultRoyalty(cfg *config.Config, registry *royalty.Registry, logger *slog.Logger) error {
	receiver, feeBps, configured, err := cfg.DefaultRoyalty()
	if err != nil {
		return err
	}
	if !configured {
		return nil
	}
	if _, exists := registry.DefaultRoyalty(); exists {
		return nil
	}
	if err := registry.SetDefaultRoyalty(receiver, feeBps); err != nil {
		return err
	}
	logger.Info("seeded default royalty",
		slog.String("receiver", receiver.String()),
		slog.Uint64("feeBps", uint64(feeBps)),
	)
	return nil
}
