package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/kaishou/internal/chime"
)

func TestPlayParams_RoundTrip(t *testing.T) {
	start := time.Date(2026, 2, 17, 20, 0, 0, 0, time.UTC)

	params := NewPlayParams(start, chime.Chime())
	if params.Tones[1].OffsetMs != 50 || params.Tones[2].DurationMs != 300 {
		t.Errorf("unexpected wire tones %+v", params.Tones)
	}

	got := params.ToneEvents()
	want := chime.Chime()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tone %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestChimeBackend_Play(t *testing.T) {
	plugin := scriptPlugin(t, ChimePlayer, `cat > request.json
echo '{"success":true}'
`)

	manager := NewManager(filepath.Dir(plugin.Path))
	manager.plugins[ChimePlayer] = plugin

	backend := NewChimeBackend(manager, NewExecutor(5000))
	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	if err := backend.Play(ctx, start, chime.Chime()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	// Playback must not depend on the caller's context.
	cancel()
	backend.Wait()

	data, err := os.ReadFile(filepath.Join(plugin.Path, "request.json"))
	if err != nil {
		t.Fatalf("plugin did not receive a request: %v", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("invalid request: %v", err)
	}
	if req.Action != "play" {
		t.Errorf("action = %q, want play", req.Action)
	}

	var params PlayParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("invalid params: %v", err)
	}
	if len(params.Tones) != 3 || !params.Start.Equal(start) {
		t.Errorf("unexpected params %+v", params)
	}
}

func TestChimeBackend_MissingPlugin(t *testing.T) {
	backend := NewChimeBackend(NewManager(t.TempDir()), NewExecutor(5000))

	err := backend.Play(context.Background(), time.Now(), chime.Chime())
	if !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestChimeBackend_UnsupportedAction(t *testing.T) {
	plugin := scriptPlugin(t, ChimePlayer, `echo '{"success":true}'`)
	plugin.Manifest.Actions = []string{ActionRender}

	manager := NewManager(filepath.Dir(plugin.Path))
	manager.plugins[ChimePlayer] = plugin

	err := NewChimeBackend(manager, NewExecutor(5000)).Play(context.Background(), time.Now(), chime.Chime())
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("expected ErrUnsupportedAction, got %v", err)
	}
}

func TestPlugin_Supports(t *testing.T) {
	open := &Plugin{}
	if !open.Supports(ActionPlay) {
		t.Error("a manifest without actions should accept any action")
	}

	listed := &Plugin{Manifest: Manifest{Actions: []string{ActionPlay, ActionRender}}}
	if !listed.Supports(ActionRender) || listed.Supports("stop") {
		t.Error("Supports should follow the manifest action list")
	}
}
