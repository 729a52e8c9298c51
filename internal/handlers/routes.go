package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes groups every handler the server mounts
type Routes struct {
	Upload      *UploadHandler
	GDrive      *GDriveHandler
	Stream      *StreamHandler
	Status      *StatusHandler
	Transcripts *TranscriptsHandler
	Minutes     *MinutesHandler
	System      *SystemHandler
}

// Register mounts the API on app. Nil handlers are skipped.
func (r Routes) Register(app *fiber.App) {
	if r.System != nil {
		app.Get("/", r.System.Root)
		app.Get("/health", r.System.Health)
		app.Get("/logs", r.System.Logs)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	if r.Upload != nil {
		api.Post("/transcribe", r.Upload.Handle)
	}
	if r.GDrive != nil {
		api.Post("/gdrive", r.GDrive.Handle)
	}
	if r.Status != nil {
		api.Get("/job/:task_id", r.Status.Get)
		api.Get("/jobs", r.Status.List)
	}
	if r.Minutes != nil {
		api.Post("/minutes", r.Minutes.Generate)
	}

	if r.Stream != nil {
		app.Use("/ws", r.Stream.Upgrade)
		app.Get("/ws/stream", websocket.New(r.Stream.Handle))
	}

	if r.Transcripts != nil {
		app.Get("/transcripts", r.Transcripts.List)
		app.Get("/transcripts/:id/text", r.Transcripts.Text)
	}
}
