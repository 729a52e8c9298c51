package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int    `yaml:"port" validate:"min=1,max=65535"`
		Host        string `yaml:"host"`
		BodyLimitMB int    `yaml:"body_limit_mb" validate:"min=1"`
	} `yaml:"server"`

	ASR struct {
		Python             string `yaml:"python" validate:"required"`
		Model              string `yaml:"model" validate:"required"`
		VADModel           string `yaml:"vad_model"`
		VADModelRevision   string `yaml:"vad_model_revision"`
		PuncModel          string `yaml:"punc_model"`
		PuncModelRevision  string `yaml:"punc_model_revision"`
		SpkModel           string `yaml:"spk_model"`
		SpkModelRevision   string `yaml:"spk_model_revision"`
		Device             string `yaml:"device"`
		BatchSizeSeconds   int    `yaml:"batch_size_s" validate:"min=1"`
		Hotword            string `yaml:"hotword"`
		StartupTimeoutSecs int    `yaml:"startup_timeout_seconds" validate:"min=1"`
	} `yaml:"asr"`

	Workers struct {
		Count int `yaml:"count" validate:"min=1"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir" validate:"required"`
		OutputDir string `yaml:"output_dir" validate:"required"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes" validate:"min=1"`
		MaxAgeHours     int `yaml:"max_age_hours" validate:"min=1"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	LLM struct {
		APIURL         string `yaml:"api_url" validate:"omitempty,url"`
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1"`
	} `yaml:"llm"`

	Log struct {
		Level      string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
		Format     string `yaml:"format" validate:"omitempty,oneof=text json"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb" validate:"min=1"`
	} `yaml:"limits"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var c Config
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8401
	c.Server.BodyLimitMB = 512

	c.ASR.Python = "python3"
	c.ASR.Model = "damo/speech_paraformer-large-vad-punc_asr_nat-zh-cn-16k-common-vocab8404-pytorch"
	c.ASR.VADModel = "fsmn-vad"
	c.ASR.VADModelRevision = "v2.0.4"
	c.ASR.PuncModel = "ct-punc"
	c.ASR.PuncModelRevision = "v2.0.4"
	c.ASR.SpkModel = "cam++"
	c.ASR.SpkModelRevision = "v2.0.2"
	c.ASR.BatchSizeSeconds = 300
	c.ASR.StartupTimeoutSecs = 600

	c.Workers.Count = 1

	c.Storage.TempDir = "temp"
	c.Storage.OutputDir = "outputs"
	c.Storage.Database = "data/transcripts.db"

	c.Cleanup.IntervalMinutes = 60
	c.Cleanup.MaxAgeHours = 24

	c.GoogleDrive.CredentialsFile = "config/credentials.json"
	c.GoogleDrive.TokenFile = "config/token.json"
	c.GoogleDrive.FolderName = "Meeting Transcripts"

	c.LLM.TimeoutSeconds = 180

	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 10
	c.Log.MaxAgeDays = 30

	c.Limits.MaxFileSizeMB = 500
	return &c
}

// Load reads the YAML file at path over the defaults, applies environment overrides and validates.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed on '%s'", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StartupTimeout is the time allowed for the engine to load its model
func (c *Config) StartupTimeout() time.Duration {
	return time.Duration(c.ASR.StartupTimeoutSecs) * time.Second
}

// LLMTimeout bounds one minutes generation call
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// applyEnv honours the deployment variable names used by the .env files
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strVars := map[string]*string{
		"ASR_MODEL_NAME":          &c.ASR.Model,
		"ASR_VAD_MODEL":           &c.ASR.VADModel,
		"ASR_VAD_MODEL_REVISION":  &c.ASR.VADModelRevision,
		"ASR_PUNC_MODEL":          &c.ASR.PuncModel,
		"ASR_PUNC_MODEL_REVISION": &c.ASR.PuncModelRevision,
		"ASR_SPK_MODEL":           &c.ASR.SpkModel,
		"ASR_SPK_MODEL_REVISION":  &c.ASR.SpkModelRevision,
		"ASR_DEVICE":              &c.ASR.Device,
		"ASR_PYTHON":              &c.ASR.Python,
		"LLM_API_URL":             &c.LLM.APIURL,
		"LLM_API_KEY":             &c.LLM.APIKey,
		"LLM_MODEL_NAME":          &c.LLM.Model,
	}
	for name, target := range strVars {
		if v, ok := lookup(name); ok && v != "" {
			*target = v
		}
	}

	if v, ok := lookup("APP_PORT_BACKEND"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid APP_PORT_BACKEND %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}
