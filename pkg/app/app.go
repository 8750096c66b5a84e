// Package app wires the browser model to its collaborators and runs it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/nicprov/nacl-crypt-s3-browser/pkg/browser"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/config"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/cryptsvc"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/dto"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/s3svc"
	"github.com/nicprov/nacl-crypt-s3-browser/pkg/session"
)

const appDirName = "nacl-crypt-s3-browser"

// App owns the running program and its background refresh job.
type App struct {
	cfg     config.Config
	store   *session.Store
	crypt   *cryptsvc.Service
	program *tea.Program
	cron    *cron.Cron
	log     *slog.Logger
}

// NewApp builds the application from its configuration.
// By default the logger is set to discard; call SetLogger before Run.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		cfg:  cfg,
		cron: cron.New(),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	sessionFile, err := sessionFilePath(cfg)
	if err != nil {
		return nil, err
	}
	a.store = session.NewStore(sessionFile)
	a.crypt = cryptsvc.NewService(cfg.CryptEndpoint, cfg.CryptTimeout())

	deps := browser.Deps{
		Store:     a.store,
		Crypt:     a.crypt,
		NewRemote: a.newRemote,
		Export:    exportTo(downloadDir(cfg)),
		Log:       a.log,
	}
	model := browser.NewModel(ctx, deps, a.store.Restore())
	a.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	return a, nil
}

// SetLogger sets the logger and propagates it to the services.
func (a *App) SetLogger(log *slog.Logger) {
	a.log = log
	a.store.SetLogger(log)
	a.crypt.SetLogger(log)
}

// Run starts the scheduled refresh job (when enabled) and blocks until the
// program finishes.
func (a *App) Run() error {
	if err := a.startScheduler(); err != nil {
		return err
	}
	defer a.cron.Stop()

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("Run: program failed: %w", err)
	}
	return nil
}

// Stop asks the program to quit.
func (a *App) Stop() {
	a.program.Quit()
}

// newRemote builds the per-account S3 service for the browser.
func (a *App) newRemote(ctx context.Context, account dto.Account) (browser.Remote, error) {
	svc, err := s3svc.NewService(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("newRemote: %w", err)
	}
	svc.SetLogger(a.log)
	return svc, nil
}

// startScheduler adds the refresh job that feeds RefreshMsg into the running
// program on the configured cron schedule.
func (a *App) startScheduler() error {
	if !a.cfg.EnableAutoRefresh {
		a.log.Info("auto refresh is disabled")
		return nil
	}
	schedule := a.cfg.RefreshCronSchedule
	if schedule == "" {
		schedule = "@every 5m"
	}
	_, err := a.cron.AddFunc(schedule, func() {
		a.log.Debug("scheduled refresh", slog.String("schedule", schedule))
		a.program.Send(browser.RefreshMsg{})
	})
	if err != nil {
		return fmt.Errorf("startScheduler: %w", err)
	}
	a.log.Info("starting refresh scheduler", slog.String("schedule", schedule))
	a.cron.Start()
	return nil
}

func sessionFilePath(cfg config.Config) (string, error) {
	if cfg.SessionFile != "" {
		return cfg.SessionFile, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("sessionFilePath: %w", err)
	}
	return filepath.Join(configDir, appDirName, "session.json"), nil
}

func downloadDir(cfg config.Config) string {
	if cfg.DownloadDir != "" {
		return cfg.DownloadDir
	}
	return "."
}
