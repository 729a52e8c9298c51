package transcription

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

//go:embed assets/funasr_worker.py
var funasrScript []byte

// FunASRConfig holds the model selection and pass-through tuning for the helper process
type FunASRConfig struct {
	Python            string
	Model             string
	VADModel          string
	VADModelRevision  string
	PuncModel         string
	PuncModelRevision string
	SpkModel          string
	SpkModelRevision  string
	Device            string
	BatchSizeSeconds  int
	Hotword           string
	StartupTimeout    time.Duration
}

// FunASREngine drives one python helper that keeps the FunASR model in memory.
// The helper answers one request at a time, so calls are serialised.
type FunASREngine struct {
	cfg        FunASRConfig
	log        logrus.FieldLogger
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	lines      chan []byte
	done       chan struct{}
	exited     chan struct{}
	scriptPath string

	dead atomic.Bool

	mu     sync.Mutex
	closed bool
}

type engineRequest struct {
	Input      string `json:"input"`
	BatchSizeS int    `json:"batch_size_s"`
	Hotword    string `json:"hotword"`
}

type engineResponse struct {
	Ready  bool                          `json:"ready,omitempty"`
	Result []types.RecognitionResultItem `json:"result,omitempty"`
	Error  string                        `json:"error,omitempty"`
}

// StartFunASR launches the helper and waits until the model reports ready
func StartFunASR(ctx context.Context, cfg FunASRConfig, log logrus.FieldLogger) (*FunASREngine, error) {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.BatchSizeSeconds <= 0 {
		cfg.BatchSizeSeconds = 300
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = 10 * time.Minute
	}

	scriptFile, err := os.CreateTemp("", "funasr_worker_*.py")
	if err != nil {
		return nil, fmt.Errorf("failed to create helper script: %w", err)
	}
	scriptPath := scriptFile.Name()
	if _, err := scriptFile.Write(funasrScript); err != nil {
		scriptFile.Close()
		os.Remove(scriptPath)
		return nil, fmt.Errorf("failed to write helper script: %w", err)
	}
	scriptFile.Close()

	args := []string{scriptPath, "--model", cfg.Model}
	for _, opt := range []struct{ flag, value string }{
		{"--vad-model", cfg.VADModel},
		{"--vad-model-revision", cfg.VADModelRevision},
		{"--punc-model", cfg.PuncModel},
		{"--punc-model-revision", cfg.PuncModelRevision},
		{"--spk-model", cfg.SpkModel},
		{"--spk-model-revision", cfg.SpkModelRevision},
		{"--device", cfg.Device},
	} {
		if opt.value != "" {
			args = append(args, opt.flag, opt.value)
		}
	}

	cmd := exec.Command(cfg.Python, args...)
	cmd.Env = os.Environ()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.Remove(scriptPath)
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(scriptPath)
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.Remove(scriptPath)
		return nil, err
	}

	log.WithField("model", cfg.Model).Info("Starting FunASR helper")
	if err := cmd.Start(); err != nil {
		os.Remove(scriptPath)
		return nil, fmt.Errorf("failed to start %s: %w", cfg.Python, err)
	}

	e := &FunASREngine{
		cfg:        cfg,
		log:        log,
		cmd:        cmd,
		stdin:      stdin,
		lines:      make(chan []byte),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
		scriptPath: scriptPath,
	}

	// Wait must not run before both pipes are drained.
	var pipes sync.WaitGroup
	pipes.Add(2)
	go func() {
		defer pipes.Done()
		e.readLines(stdout)
	}()
	go func() {
		defer pipes.Done()
		e.forwardStderr(stderr)
	}()
	go func() {
		pipes.Wait()
		cmd.Wait()
		e.dead.Store(true)
		close(e.exited)
	}()

	if err := e.awaitReady(ctx); err != nil {
		e.Close()
		return nil, err
	}

	log.Info("FunASR model loaded")
	return e, nil
}

func (e *FunASREngine) awaitReady(ctx context.Context) error {
	timer := time.NewTimer(e.cfg.StartupTimeout)
	defer timer.Stop()

	select {
	case line, ok := <-e.lines:
		if !ok {
			return errors.New("helper exited before reporting ready")
		}
		resp, err := decodeResponse(line)
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		if !resp.Ready {
			return errors.New("helper sent unexpected startup message")
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("model not ready after %s", e.cfg.StartupTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recognize sends one file to the helper and waits for its sentences
func (e *FunASREngine) Recognize(ctx context.Context, audioPath string) ([]types.RecognitionResultItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.Alive() {
		return nil, ErrEngineNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("audio file unavailable: %w", err)
	}

	payload, err := json.Marshal(engineRequest{
		Input:      absPath,
		BatchSizeS: e.cfg.BatchSizeSeconds,
		Hotword:    e.cfg.Hotword,
	})
	if err != nil {
		return nil, err
	}
	if _, err := e.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request to helper: %w", err)
	}

	resp, err := e.readResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read helper response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("funasr: %s", resp.Error)
	}
	return resp.Result, nil
}

// readResponse waits for the helper's answer. Cancellation kills the helper:
// its next output line would belong to the abandoned request.
func (e *FunASREngine) readResponse(ctx context.Context) (engineResponse, error) {
	select {
	case line, ok := <-e.lines:
		if !ok {
			return engineResponse{}, io.EOF
		}
		return decodeResponse(line)
	case <-ctx.Done():
		e.log.WithError(ctx.Err()).Warn("Recognition cancelled, stopping FunASR helper")
		e.kill()
		return engineResponse{}, ctx.Err()
	}
}

// Alive reports whether the helper process is still running
func (e *FunASREngine) Alive() bool {
	return !e.dead.Load()
}

func (e *FunASREngine) kill() {
	e.dead.Store(true)
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
}

func decodeResponse(line []byte) (engineResponse, error) {
	var resp engineResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return resp, fmt.Errorf("failed to parse helper output: %w", err)
	}
	return resp, nil
}

func (e *FunASREngine) readLines(r io.Reader) {
	defer close(e.lines)
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case e.lines <- line:
			case <-e.done:
				io.Copy(io.Discard, reader)
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// forwardStderr logs helper output split on '\r' or '\n' and always reads
// the pipe to EOF, including after an oversized line.
func (e *FunASREngine) forwardStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLogLines)
	for scanner.Scan() {
		if line := scanner.Bytes(); len(bytes.TrimSpace(line)) > 0 {
			e.log.WithField("component", "funasr").Debug(string(line))
		}
	}
	if err := scanner.Err(); err != nil {
		e.log.WithError(err).Debug("FunASR stderr not line-readable, discarding the rest")
	}
	io.Copy(io.Discard, r)
}

func scanLogLines(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Close stops the helper and removes its script
func (e *FunASREngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)

	e.stdin.Close()
	select {
	case <-e.exited:
	case <-time.After(5 * time.Second):
		e.kill()
		<-e.exited
	}
	return os.Remove(e.scriptPath)
}
