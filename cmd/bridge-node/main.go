// Copyright 2025 Certen Protocol
//
// Command bridge-node runs the Bridge Action Executor: it recovers any
// actions left pending by a prior run, then drives the signing and
// execution pipeline until terminated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/committee"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/executor"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/promexport"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/txbuilder"
	"github.com/mangonet-labs/bridge-node/pkg/bridge/wal"
	"github.com/mangonet-labs/bridge-node/pkg/config"
	"github.com/mangonet-labs/bridge-node/pkg/database"
)

// HealthStatus tracks the health of the node's dependencies for the
// /health endpoint.
type HealthStatus struct {
	Status        string `json:"status"` // "ok", "degraded"
	Database      string `json:"database"`
	ChainRPC      string `json:"chain_rpc"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	startTime time.Time
	mu        sync.RWMutex
}

var healthStatus = &HealthStatus{
	Status:    "starting",
	Database:  "unknown",
	ChainRPC:  "unknown",
	startTime: time.Now(),
}

func (h *HealthStatus) SetDatabase(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Database = status
	h.updateOverallStatus()
}

func (h *HealthStatus) SetChainRPC(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ChainRPC = status
	h.updateOverallStatus()
}

func (h *HealthStatus) updateOverallStatus() {
	if h.Database == "connected" && h.ChainRPC == "connected" {
		h.Status = "ok"
		return
	}
	h.Status = "degraded"
}

func (h *HealthStatus) ToJSON() []byte {
	h.mu.Lock()
	h.UptimeSeconds = int64(time.Since(h.startTime).Seconds())
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	data, _ := json.Marshal(h)
	return data
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("Starting bridge-node action executor")

	showHelp := flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("[Database] Connecting to PostgreSQL...")
	dbClient, err := database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[Database] ", log.LstdFlags),
	))
	if err != nil {
		log.Fatalf("Database connection required but failed: %v", err)
	}
	healthStatus.SetDatabase("connected")

	if err := dbClient.MigrateUp(context.Background()); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	pendingLog := wal.New(dbClient.DB(), bridge.TransferCodec{}, wal.WithLogger(
		log.New(log.Writer(), "[WAL] ", log.LstdFlags),
	))

	log.Printf("[Committee] Loading roster from %s...", cfg.Bridge.CommitteeRosterPath)
	roster, err := committee.LoadRoster(cfg.Bridge.CommitteeRosterPath)
	if err != nil {
		log.Fatalf("Failed to load committee roster: %v", err)
	}
	members, err := roster.ResolveMembers(func(endpoint string) committee.AuthorityClient {
		return committee.NewHTTPAuthorityClient(endpoint, nil)
	})
	if err != nil {
		log.Fatalf("Failed to resolve committee members: %v", err)
	}
	aggregator := committee.NewAggregator(members, committee.WithLogger(
		log.New(log.Writer(), "[Committee] ", log.LstdFlags),
	))

	threshold := cfg.Bridge.ValidityThreshold
	if threshold == 0 {
		threshold = roster.ValidityThreshold()
	}
	log.Printf("[Committee] %d members, total stake %d, validity threshold %d", len(members), roster.TotalStake(), threshold)

	log.Printf("[Chain] Connecting to destination chain RPC at %s...", cfg.Bridge.ChainRPCURL)
	chainClient := txbuilder.New(cfg.Bridge.ChainRPCURL, txbuilder.WithLogger(
		log.New(log.Writer(), "[ChainClient] ", log.LstdFlags),
	))
	healthStatus.SetChainRPC("connected")

	signer, err := txbuilder.NewNodeSigner(cfg.Bridge.NodeSigningKey)
	if err != nil {
		log.Fatalf("Failed to load node signing key: %v", err)
	}
	log.Printf("[Node] Settlement signer address: %s", signer.Address())

	gasObjectID, err := bridge.ObjectIDFromHex(cfg.Bridge.GasObjectID)
	if err != nil {
		log.Fatalf("Invalid BRIDGE_GAS_OBJECT_ID: %v", err)
	}

	promMetrics := promexport.New(prometheus.DefaultRegisterer)

	exec := executor.New(
		chainClient,
		aggregator,
		pendingLog,
		signer,
		gasObjectID,
		threshold,
		txbuilder.Build,
		executor.WithLogger(log.New(log.Writer(), "[Executor] ", log.LstdFlags)),
		executor.WithMetrics(promMetrics),
	)

	ctx, cancel := context.WithCancel(context.Background())

	exec.Recover(ctx)
	go exec.Run(ctx)

	log.Println("Bridge action executor pipeline running")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Printf("Metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if healthStatus.Status != "ok" {
			w.WriteHeader(http.StatusOK)
		}
		w.Write(healthStatus.ToJSON())
	})
	healthServer := &http.Server{Addr: cfg.HealthAddr, Handler: healthMux}
	go func() {
		log.Printf("Health check listening on %s", cfg.HealthAddr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Health server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down bridge-node...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown error: %v", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	}
	if err := dbClient.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("bridge-node stopped")
}

func printHelp() {
	fmt.Println("bridge-node: durable two-stage bridge action executor")
	fmt.Println()
	fmt.Println("Configuration is read entirely from the environment; see pkg/config for the full list.")
	fmt.Println("Required: BRIDGE_CHAIN_RPC_URL, BRIDGE_NODE_SIGNING_KEY, BRIDGE_GAS_OBJECT_ID, BRIDGE_COMMITTEE_ROSTER_PATH, DB_HOST, DB_NAME")
}
