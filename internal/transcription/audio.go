package transcription

import (
	"path/filepath"
	"strings"
)

// DefaultExtension is used for uploads whose name carries no extension
const DefaultExtension = ".wav"

// SupportedFormats lists the container extensions the engine is fed
var SupportedFormats = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm"}

// ScratchExtension derives the scratch file extension from an uploaded file name
func ScratchExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	return ext
}

// ValidateAudioFormat checks if the file format is supported.
// A name without extension is accepted and treated as WAV.
func ValidateAudioFormat(filename string) bool {
	ext := ScratchExtension(filename)
	for _, format := range SupportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
