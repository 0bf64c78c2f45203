package main

import (
	"context"
	"errors"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config"
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/config/di"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	config.Init("exchanged")

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	events := container.GetEvents()
	container.GetMetrics().Listen(events)

	if elastic := container.GetElastic(); elastic != nil {
		if err := elastic.InstallMappings(); err != nil {
			zap.L().With(zap.Error(err)).Fatal("Failed to install mappings")
		}
		container.GetIndexer().Listen(events)
	}

	ex := container.GetExchange()
	zap.L().With(
		zap.String("exchange", ex.Address().String()),
		zap.String("admin", ex.Admin().String()),
		zap.Uint64("feePercent", ex.PlatformFeePercent()),
		zap.String("ledger", ex.ValueLedger().Address().String()),
		zap.String("registry", container.GetRegistry().Address().String()),
	).Info("Exchange Started")

	server := &http.Server{
		Addr:              ":" + config.Get().ApiPort,
		Handler:           container.GetApi().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Serving exchange api on :" + config.Get().ApiPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().With(zap.Error(err)).Fatal("Failed to start exchange api")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to shut down exchange api")
	}
	events.Close()
	if err := container.Delete(); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to close container")
	}

	zap.L().Info("Exchange Stopped")
	_ = zap.L().Sync()
}
