package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

type TokenFetcher interface {
	GetAccessToken(ctx context.Context) (*application.TokenResponse, error)
}

type ProgramFetcher interface {
	FetchProgramConfig(ctx context.Context) (*domain.ProgramConfig, error)
}

// SyncStatus summarizes one data-sync run.
type SyncStatus string

const (
	SyncSuccess         SyncStatus = "Success"
	SyncPartialSuccess  SyncStatus = "Partial Success"
	SyncCompleteFailure SyncStatus = "Complete Failure"
)

type SyncResult struct {
	Status    SyncStatus
	Succeeded int
	Failed    int
	Errors    []string
}

// DataSyncWorker refreshes the cached access token and program configuration.
// Both steps run on every tick; one failing does not skip the other.
type DataSyncWorker struct {
	tokens   TokenFetcher
	program  ProgramFetcher
	settings application.SettingsStore
	interval time.Duration
	logger   *slog.Logger
}

func NewDataSyncWorker(
	tokens TokenFetcher,
	program ProgramFetcher,
	settings application.SettingsStore,
	interval time.Duration,
	logger *slog.Logger,
) *DataSyncWorker {
	return &DataSyncWorker{
		tokens:   tokens,
		program:  program,
		settings: settings,
		interval: interval,
		logger:   logger,
	}
}

func (w *DataSyncWorker) Start(ctx context.Context) {
	w.logger.Info("data sync worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("data sync worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *DataSyncWorker) RunOnce(ctx context.Context) SyncResult {
	var result SyncResult

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"access token", w.syncToken},
		{"program configuration", w.syncProgramConfig},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", step.name, err))
			w.logger.Error("data sync step failed", "step", step.name, "error", err)
			continue
		}
		result.Succeeded++
	}

	switch {
	case result.Failed == 0:
		result.Status = SyncSuccess
	case result.Succeeded == 0:
		result.Status = SyncCompleteFailure
	default:
		result.Status = SyncPartialSuccess
	}

	if result.Failed > 0 {
		w.logger.Warn("data sync completed with errors",
			"status", result.Status,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"errors", strings.Join(result.Errors, "; "),
		)
	} else {
		w.logger.Info("data sync completed", "status", result.Status)
	}

	return result
}

func (w *DataSyncWorker) syncToken(ctx context.Context) error {
	token, err := w.tokens.GetAccessToken(ctx)
	if err != nil {
		return err
	}
	return w.settings.SaveAccessToken(ctx, token.AccessToken)
}

// syncProgramConfig runs after syncToken; the client reads the token from settings.
func (w *DataSyncWorker) syncProgramConfig(ctx context.Context) error {
	cfg, err := w.program.FetchProgramConfig(ctx)
	if err != nil {
		return err
	}
	return w.settings.SaveProgramConfig(ctx, cfg)
}
