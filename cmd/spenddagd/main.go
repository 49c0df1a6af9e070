// Command spenddagd builds and verifies a SpendDAG against a live overlay.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/klingon-exchange/spenddag/internal/buildsession"
	"github.com/klingon-exchange/spenddag/internal/dagbuild"
	"github.com/klingon-exchange/spenddag/internal/overlay"
	"github.com/klingon-exchange/spenddag/internal/sessionconfig"
	"github.com/klingon-exchange/spenddag/internal/spendmodel"
	"github.com/klingon-exchange/spenddag/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		dataDir        = flag.String("data-dir", "~/.spenddag", "Data directory")
		configFile     = flag.String("config", "", "Config file path; only its directory is used, and the file read there is spenddag.yaml (default: <data-dir>/spenddag.yaml)")
		listenAddr     = flag.String("listen", "", "Listen address (multiaddr), overrides config")
		bootstrapPeers = flag.String("bootstrap", "", "Bootstrap peers (comma-separated multiaddrs)")
		logLevel       = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		rootHex        = flag.String("root", "", "Address (hex-encoded) to build the DAG from")
		continueUTXOs  = flag.Bool("continue", false, "After the initial build, continue from every UTXO")
		showVersion    = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{Level: *logLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("spenddagd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	if *rootHex == "" {
		log.Fatal("missing required flag -root")
	}
	rootBytes, err := hex.DecodeString(*rootHex)
	if err != nil || len(rootBytes) != len(spendmodel.Address{}) {
		log.Fatal("invalid -root address", "value", *rootHex)
	}
	var root spendmodel.Address
	copy(root[:], rootBytes)

	configDir := *dataDir
	if *configFile != "" {
		configDir = filepath.Dir(*configFile)
	}
	cfg, err := sessionconfig.Load(configDir)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	if *listenAddr != "" {
		cfg.Overlay.ListenAddrs = []string{*listenAddr}
	}
	if *bootstrapPeers != "" {
		cfg.Overlay.BootstrapPeers = parseBootstrapPeers(*bootstrapPeers)
	}
	cfg.Logging.Level = *logLevel

	logCfg := &logging.Config{Level: cfg.Logging.Level, TimeFormat: time.TimeOnly}
	if cfg.Logging.File != "" {
		logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			log.Fatal("failed to open log file", "path", cfg.Logging.File, "error", err)
		}
		defer logFile.Close()
		logCfg.Output = logFile
	}
	log = logging.New(logCfg)
	logging.SetDefault(log)

	log.Info("config loaded", "path", sessionconfig.Path(configDir))

	genesis := spendmodel.DefaultGenesis()
	switch {
	case cfg.Build.GenesisIDHex != "" && cfg.Build.GenesisOutputHex != "":
		genesis, err = spendmodel.GenesisFromHex(cfg.Build.GenesisIDHex, cfg.Build.GenesisOutputHex)
		if err != nil {
			log.Fatal("invalid genesis override", "error", err)
		}
	case cfg.Build.GenesisIDHex != "" || cfg.Build.GenesisOutputHex != "":
		log.Fatal("genesis_id_hex and genesis_output_hex must both be set, or both left empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, d, store, err := overlay.Join(ctx, cfg.Overlay, log)
	if err != nil {
		log.Fatal("failed to join overlay", "error", err)
	}
	defer d.Close()
	defer h.Close()
	log.Info("joined overlay", "peer_id", h.ID(), "peers", len(h.Network().Peers()))

	sess := buildsession.New(genesis, cfg.Build.MaxParallelism, cfg.Overlay.RequestTimeout, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	dag, err := dagbuild.BuildFrom(ctx, sess, store, root)
	if err != nil {
		log.Fatal("failed to build DAG", "error", err)
	}
	log.Info("build complete", "root", root, "entries", dag.Len(), "utxos", len(dag.GetUTXOs()))

	if *continueUTXOs {
		if err := dagbuild.ContinueFromUTXOs(ctx, sess, store, dag); err != nil {
			log.Error("continuation finished with errors", "error", err)
		}
		log.Info("continuation complete", "entries", dag.Len(), "utxos", len(dag.GetUTXOs()))
	}

	issues := dag.Verify(root)
	if len(issues) == 0 {
		log.Info("verification found no issues")
		return
	}
	log.Warn("verification recorded issues", "count", len(issues))
	for _, iss := range issues {
		log.Warn("issue", "kind", iss.Kind, "addr", iss.Address, "detail", iss.Detail)
	}
}

func parseBootstrapPeers(s string) []string {
	if s == "" {
		return nil
	}
	var peers []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			peers = append(peers, p)
		}
	}
	return peers
}
