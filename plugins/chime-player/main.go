// Package main provides the chime-player plugin. It renders a tone schedule
// to a WAV file and plays it with the platform's command line player.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/plugin"
)

// RenderParams are the params of a "render" request.
type RenderParams struct {
	plugin.PlayParams
	Path string `json:"path"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	var err error
	switch req.Action {
	case plugin.ActionPlay:
		err = handlePlay(req.Params)
	case plugin.ActionRender:
		err = handleRender(req.Params)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}
	writeResponse(err)
}

func handlePlay(raw json.RawMessage) error {
	var p plugin.PlayParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	player, err := findPlayer()
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "kaishou-chime-*.wav")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := chime.WriteWAV(f, chime.Render(p.ToneEvents(), chime.SampleRate), chime.SampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Tone offsets are relative to the transition instant.
	if wait := time.Until(p.Start); wait > 0 {
		time.Sleep(wait)
	}

	out, err := exec.Command(player, f.Name()).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(player), err, out)
	}
	return nil
}

func handleRender(raw json.RawMessage) error {
	var p RenderParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Path == "" {
		return errors.New("path is required")
	}

	f, err := os.Create(p.Path)
	if err != nil {
		return err
	}
	if err := chime.WriteWAV(f, chime.Render(p.ToneEvents(), chime.SampleRate), chime.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func findPlayer() (string, error) {
	candidates := []string{"aplay", "paplay"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"afplay"}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no audio player found (tried %v)", candidates)
}

func writeResponse(err error) {
	resp := plugin.Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
