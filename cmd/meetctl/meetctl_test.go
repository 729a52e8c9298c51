package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNames(t *testing.T) {
	names, err := parseNames([]string{"Speaker 0=Alice", " Speaker 1 = Bob ", "Speaker 2="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Speaker 0": "Alice", "Speaker 1": "Bob", "Speaker 2": ""}, names)

	_, err = parseNames([]string{"Alice"})
	assert.Error(t, err)
	_, err = parseNames([]string{"=Alice"})
	assert.Error(t, err)
}

func TestServerURL(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }
	cmd := &cobra.Command{}
	addGlobalFlags(cmd)

	assert.Equal(t, defaultServerURL, serverURL(cmd, getenv))

	env["BACKEND_API_URL"] = "backend/"
	env["APP_PORT_BACKEND"] = "9000"
	assert.Equal(t, "http://backend:9000", serverURL(cmd, getenv))

	env["MEETCTL_SERVER"] = "http://env:1"
	assert.Equal(t, "http://env:1", serverURL(cmd, getenv))

	require.NoError(t, cmd.PersistentFlags().Set("server", "http://flag:2"))
	assert.Equal(t, "http://flag:2", serverURL(cmd, getenv))
}

const completedJob = `{"task_id":"t1","status":"COMPLETED","transcription":"Speaker 0 [0.00s - 1.00s]: hi\nSpeaker 1 [1.00s - 2.00s]: hello"}`

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/transcribe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"task_id":"t1","status":"SAVED","detail":"ok"}`))
	})
	mux.HandleFunc("/api/job/t1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completedJob))
	})
	mux.HandleFunc("/api/minutes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SpeakerNames map[string]string `json:"speaker_names"`
			Meeting      struct {
				Topic string `json:"topic"`
			} `json:"meeting"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Alice", req.SpeakerNames["Speaker 0"])
		w.Write([]byte(`{"minutes":"# Minutes for ` + req.Meeting.Topic + `","filename":"MeetingMinutes_Sync_20250101.md"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTranscribeWait(t *testing.T) {
	srv := fakeServer(t)
	audio := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0644))

	out, err := execute(t, "--server", srv.URL, "transcribe", audio)
	require.NoError(t, err)
	assert.Equal(t, "t1\n", out)

	out, err = execute(t, "--server", srv.URL, "transcribe", audio, "--wait", "--interval", "1ms")
	require.NoError(t, err)
	assert.Equal(t, "Speaker 0 [0.00s - 1.00s]: hi\nSpeaker 1 [1.00s - 2.00s]: hello\n", out)
}

func TestSpeakers(t *testing.T) {
	srv := fakeServer(t)
	out, err := execute(t, "--server", srv.URL, "speakers", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Speaker 0\nSpeaker 1\n", out)
}

func TestMinutesToFile(t *testing.T) {
	srv := fakeServer(t)
	dest := filepath.Join(t.TempDir(), "minutes.md")

	_, err := execute(t, "--server", srv.URL, "minutes", "t1", "--topic", "Sync", "--name", "Speaker 0=Alice", "-o", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "# Minutes for Sync", string(data))
}

func TestStatusUnknownTask(t *testing.T) {
	srv := fakeServer(t)
	_, err := execute(t, "--server", srv.URL, "status", "missing")
	assert.Error(t, err)
}
