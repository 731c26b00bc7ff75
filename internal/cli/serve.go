package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/markers-extractor/internal/api"
	"github.com/heimdex/markers-extractor/internal/config"
	"github.com/heimdex/markers-extractor/internal/extractor"
	"github.com/heimdex/markers-extractor/internal/logging"
	"github.com/heimdex/markers-extractor/internal/media"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API on localhost",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}
	cmd.Flags().Int("port", config.DefaultPort, "HTTP port")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	startTime := time.Now()
	if f := cmd.Flags().Lookup("port"); f.Changed {
		cfg.Viper().BindPFlag(config.KeyPort, f)
	}

	database, repo, err := openHistory()
	if err != nil {
		exitErr("open history", err)
	}
	if database != nil {
		defer database.Close()
	}

	token := cfg.APIToken()
	if token == "" {
		if token, err = newToken(); err != nil {
			exitErr("generate api token", err)
		}
		fmt.Printf("API token: %s\n", token)
	}

	ffmpeg := newFFmpeg()
	doctor := media.NewCachedDoctor(ffmpeg, logging.WithComponent(logger, "doctor"))

	ctx := cmd.Context()
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if caps, err := doctor.Refresh(probeCtx); err != nil {
		logger.Warn("initial media probe failed", "error", err)
	} else if !caps.CanRender() {
		logger.Warn("ffmpeg or ffprobe not found, only metadata exports will succeed")
	}
	cancel()

	server := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		APIToken:  token,
		Runner:    extractor.NewRunner(ffmpeg, ffmpeg, repo, config.Version),
		History:   repo,
		Doctor:    doctor,
		Logger:    logging.WithComponent(logger, "api"),
		StartTime: startTime,
		Version:   config.Version,
	})
	fmt.Printf("API URL:   http://%s\n", server.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			exitErr("http server", err)
		}
		return
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	logger.Info("shutdown complete")
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
