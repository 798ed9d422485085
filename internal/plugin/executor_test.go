package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest:   Manifest{Name: name, Version: "1.0.0", Executable: name + ".sh"},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"message":"hello"}}'`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "play"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success || response.Error != "" {
		t.Errorf("unexpected response %+v", response)
	}

	var data map[string]string
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	request := &Request{
		Action: "play",
		Params: json.RawMessage(`{"tones":[{"frequency":1500}]}`),
	}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var received Request
	if err := json.Unmarshal(response.Data, &received); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if received.Action != "play" {
		t.Errorf("expected action 'play', got %q", received.Action)
	}

	var params PlayParams
	if err := json.Unmarshal(received.Params, &params); err != nil {
		t.Fatalf("failed to unmarshal params: %v", err)
	}
	if len(params.Tones) != 1 || params.Tones[0].Frequency != 1500 {
		t.Errorf("unexpected params %+v", params)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", "sleep 10\necho '{\"success\":true}'\n")

	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{Action: "play"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !errors.Is(err, ErrTimeout) || !strings.Contains(err.Error(), "slow") {
		t.Errorf("expected timeout error naming the plugin, got: %v", err)
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("NewExecutor(0).Timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := NewExecutor(250).Timeout(); got != 250*time.Millisecond {
		t.Errorf("NewExecutor(250).Timeout() = %v, want 250ms", got)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"invalid json", "echo 'not valid json'\n"},
		{"non-zero exit", "echo 'no audio device' >&2\nexit 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "bad", tt.script)
			if _, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "play"}); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "error", `echo '{"success":false,"error":"something went wrong"}'`)

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "play"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}
