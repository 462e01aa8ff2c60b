package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/colosseum-live/arena/internal/agent"
	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/discussion"
	"github.com/colosseum-live/arena/internal/feed"
	"github.com/colosseum-live/arena/internal/ledger"
	"github.com/colosseum-live/arena/internal/lifecycle"
	"github.com/colosseum-live/arena/internal/store"
	"github.com/colosseum-live/arena/internal/verdict"
	"github.com/colosseum-live/arena/web/handlers"
)

const eventQueueSize = 16

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinator and spectator server",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("Initializing storage", "path", appConfig.Storage.DBPath)
		st, err := store.NewSQLiteStore(appConfig.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer st.Close()

		if err := st.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		hub := feed.NewHub()
		chatSvc := chat.NewService(st, hub)
		gateway := agent.NewGateway(appConfig.Agents.Timeout)
		ledgerClient := ledger.NewClient(appConfig.Ledger.BaseURL)

		orchestrator := discussion.NewOrchestrator(chatSvc, gateway, discussion.Options{
			TurnBudget:      appConfig.Discussion.TurnBudget,
			TurnDelay:       appConfig.Discussion.TurnDelay,
			KeepAliveCycles: appConfig.Discussion.KeepAliveCycles,
		})
		verdicts := verdict.NewProtocol(chatSvc, gateway, appConfig.Verdict.MaxAttempts)

		monitor := lifecycle.NewMonitor(lifecycle.Config{
			Ledger:       ledgerClient,
			Chat:         chatSvc,
			Store:        st,
			Orchestrator: orchestrator,
			Verdicts:     verdicts,
			PollInterval: appConfig.Lifecycle.PollInterval,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sweepAgentHealth(ctx, ledgerClient, gateway)

		events := make(chan lifecycle.Event, eventQueueSize)
		go func() {
			if err := monitor.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Lifecycle monitor stopped", "error", err)
			}
		}()

		h := handlers.New(chatSvc, hub, events)
		addr := fmt.Sprintf(":%d", appConfig.Server.Port)
		server := &http.Server{
			Addr:    addr,
			Handler: h.Router(),
		}

		go func() {
			<-ctx.Done()
			slog.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		slog.Info("Starting arena server", "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

// sweepAgentHealth probes every registered gladiator endpoint once at
// startup so unreachable agents show up in the logs before a round starts.
func sweepAgentHealth(ctx context.Context, lg ledger.Ledger, gateway *agent.Gateway) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	markets, err := lg.ActiveMarkets(sweepCtx)
	if err != nil {
		slog.Warn("Health sweep could not list markets", "error", err)
		return
	}

	for _, market := range markets {
		gladiators, err := lg.Gladiators(sweepCtx, market.ID)
		if err != nil {
			slog.Warn("Health sweep could not read gladiators", "market_id", market.ID, "error", err)
			continue
		}
		for _, g := range gladiators {
			if !g.Active {
				continue
			}
			healthy := gateway.IsHealthy(sweepCtx, g.AsParticipant())
			slog.Info("Agent health", "market_id", market.ID, "agent_id", g.AgentID, "healthy", healthy)
		}
	}
}
