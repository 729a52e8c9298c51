package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

const uploadAttempts = 3

// Uploader sends a finished transcript off-site and returns a link to it
type Uploader interface {
	Upload(ctx context.Context, result *types.TranscriptionResult) (string, error)
}

// Archive keeps completed transcripts on disk, in the metadata index and optionally on Drive.
// Every step is best effort: failures are logged and never reported to the caller.
type Archive struct {
	local   *LocalStorage
	db      *MetadataDB
	drive   Uploader
	log     logrus.FieldLogger
	backoff func(attempt int) time.Duration
}

// NewArchive wires the archive targets. db and drive may be nil.
func NewArchive(local *LocalStorage, db *MetadataDB, drive Uploader, log logrus.FieldLogger) *Archive {
	return &Archive{
		local: local,
		db:    db,
		drive: drive,
		log:   log,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// Store archives result and fills in LocalPath and GDriveURL on success
func (a *Archive) Store(ctx context.Context, result *types.TranscriptionResult) {
	log := a.log.WithField("task_id", result.TaskID)

	if a.local != nil {
		localPath, err := a.local.SaveTranscript(result)
		if err != nil {
			log.WithError(err).Error("Local archive save failed")
			return
		}
		result.LocalPath = localPath
	}

	if a.drive != nil {
		var err error
		for attempt := 1; attempt <= uploadAttempts; attempt++ {
			var url string
			url, err = a.drive.Upload(ctx, result)
			if err == nil {
				result.GDriveURL = url
				break
			}
			log.WithError(err).Warnf("Google Drive upload attempt %d/%d failed", attempt, uploadAttempts)
			if attempt < uploadAttempts {
				select {
				case <-time.After(a.backoff(attempt)):
				case <-ctx.Done():
					attempt = uploadAttempts
				}
			}
		}
		if err != nil {
			log.Warn("Google Drive upload failed, transcript kept locally only")
		}
	}

	if a.db != nil {
		if err := a.db.SaveTranscript(result); err != nil {
			log.WithError(err).Error("Database save failed")
		}
	}

	log.WithFields(logrus.Fields{
		"local_path": result.LocalPath,
		"gdrive_url": result.GDriveURL,
	}).Info("Transcript archived")
}
