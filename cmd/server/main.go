package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/cleanup"
	"github.com/codebuildervaibhav/meeting-assistant/internal/config"
	"github.com/codebuildervaibhav/meeting-assistant/internal/handlers"
	"github.com/codebuildervaibhav/meeting-assistant/internal/logging"
	"github.com/codebuildervaibhav/meeting-assistant/internal/metrics"
	"github.com/codebuildervaibhav/meeting-assistant/internal/middleware"
	"github.com/codebuildervaibhav/meeting-assistant/internal/minutes"
	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
	"github.com/codebuildervaibhav/meeting-assistant/internal/storage"
	"github.com/codebuildervaibhav/meeting-assistant/internal/tasks"
	"github.com/codebuildervaibhav/meeting-assistant/internal/transcription"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logBuffer := logging.NewLogBuffer(1000)
	log := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, logBuffer)

	if err := run(cfg, log, logBuffer); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger, logBuffer *logging.LogBuffer) error {
	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir, log); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info("Initializing components...")

	// A failed model load keeps the API up; uploads answer 503 until restart.
	recognizer, engine := startEngine(cfg, log)
	metrics.SetEngineReady(recognizer.Ready())

	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	archive := storage.NewArchive(storage.NewLocalStorage(cfg.Storage.OutputDir), db, driveUploader(cfg, log), log)

	store := tasks.NewStore()
	pool := queue.NewWorkerPool(store, recognizer, cfg.Workers.Count, archive, log)
	orchestrator := queue.NewOrchestrator(store, pool, recognizer, cfg.Storage.TempDir, log)

	var llm minutes.Completer
	if cfg.LLM.APIURL != "" {
		llm = minutes.NewLLMClient(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLMTimeout())
	} else {
		log.Warn("LLM_API_URL not set - minutes generation disabled")
	}

	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
		log,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:   "meeting-assistant",
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	handlers.Routes{
		Upload:      handlers.NewUploadHandler(orchestrator, cfg.Limits.MaxFileSizeMB, log),
		GDrive:      handlers.NewGDriveHandler(orchestrator, &http.Client{Timeout: 10 * time.Minute}, cfg.Limits.MaxFileSizeMB, log),
		Stream:      handlers.NewStreamHandler(orchestrator, cfg.Limits.MaxFileSizeMB, log),
		Status:      handlers.NewStatusHandler(store),
		Transcripts: handlers.NewTranscriptsHandler(db, log),
		Minutes:     handlers.NewMinutesHandler(minutes.NewGenerator(llm, log)),
		System:      handlers.NewSystemHandler(orchestrator, logBuffer),
	}.Register(app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infof("Server starting on %s", addr)
	log.Info("Endpoints:")
	log.Info("   POST /api/transcribe      - Upload audio file")
	log.Info("   GET  /api/job/:task_id    - Task status and transcript")
	log.Info("   GET  /api/jobs            - List tasks")
	log.Info("   POST /api/gdrive          - Import a Google Drive recording")
	log.Info("   POST /api/minutes         - Generate meeting minutes")
	log.Info("   GET  /ws/stream           - WebSocket audio streaming")
	log.Info("   GET  /transcripts         - List archived transcripts")
	log.Info("   GET  /transcripts/:id/text - Archived transcript text")
	log.Info("   GET  /logs /health /metrics")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(addr)
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-sigint:
	}

	log.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	if err := pool.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("In-flight tasks abandoned at shutdown")
	}
	if engine != nil {
		if err := engine.Close(); err != nil {
			log.WithError(err).Warn("Failed to stop recognition engine")
		}
	}
	log.Info("Server stopped")
	return nil
}

func startEngine(cfg *config.Config, log *logrus.Logger) (*transcription.Recognizer, *transcription.FunASREngine) {
	log.WithField("model", cfg.ASR.Model).Info("Loading ASR model...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StartupTimeout())
	defer cancel()

	engine, err := transcription.StartFunASR(ctx, transcription.FunASRConfig{
		Python:            cfg.ASR.Python,
		Model:             cfg.ASR.Model,
		VADModel:          cfg.ASR.VADModel,
		VADModelRevision:  cfg.ASR.VADModelRevision,
		PuncModel:         cfg.ASR.PuncModel,
		PuncModelRevision: cfg.ASR.PuncModelRevision,
		SpkModel:          cfg.ASR.SpkModel,
		SpkModelRevision:  cfg.ASR.SpkModelRevision,
		Device:            cfg.ASR.Device,
		BatchSizeSeconds:  cfg.ASR.BatchSizeSeconds,
		Hotword:           cfg.ASR.Hotword,
		StartupTimeout:    cfg.StartupTimeout(),
	}, log)
	if err != nil {
		log.WithError(err).Error("Failed to load ASR model - transcription unavailable")
		return transcription.NewRecognizer(nil), nil
	}

	return transcription.NewRecognizer(engine), engine
}

// driveUploader returns nil unless Drive credentials and a stored token are usable
func driveUploader(cfg *config.Config, log *logrus.Logger) storage.Uploader {
	if _, err := os.Stat(cfg.GoogleDrive.CredentialsFile); errors.Is(err, os.ErrNotExist) {
		log.Info("Google Drive credentials not found - saving locally only")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := storage.NewDriveClient(ctx,
		cfg.GoogleDrive.CredentialsFile,
		cfg.GoogleDrive.TokenFile,
		cfg.GoogleDrive.FolderName,
	)
	if err != nil {
		log.WithError(err).Warn("Google Drive not available, transcripts will only be saved locally")
		return nil
	}
	log.Info("Google Drive integration enabled")
	return client
}
