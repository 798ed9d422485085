package commands

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ayusman/kaishou/internal/app"
)

// run executes the CLI with a throwaway data directory and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KAISHOU_DATA_DIR", t.TempDir())

	root, err := newRootCmd()
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name      string
		fingers   string
		wantEnter int
		wantExit  int
	}{
		{name: "open hand held", fingers: "4,4,4", wantEnter: 1},
		{name: "ambiguous frame keeps state", fingers: "4,2,4,0", wantEnter: 1, wantExit: 1},
		{name: "round trips", fingers: "4,0,4,0", wantEnter: 2, wantExit: 2},
		{name: "no hand is ignored", fingers: "-1,4,-1,0", wantEnter: 1, wantExit: 1},
		{name: "fist while dormant", fingers: "0,1,0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "simulate", "--seed", "7", "--fingers="+tt.fingers)
			if err != nil {
				t.Fatalf("simulate error = %v", err)
			}

			if got := strings.Count(out, "-> ENTER_TRANSFORMED"); got != tt.wantEnter {
				t.Errorf("enter count = %d, want %d\n%s", got, tt.wantEnter, out)
			}
			if got := strings.Count(out, "-> EXIT_TRANSFORMED"); got != tt.wantExit {
				t.Errorf("exit count = %d, want %d\n%s", got, tt.wantExit, out)
			}
			if got := strings.Count(out, "  explosion "); got != tt.wantEnter {
				t.Errorf("explosions = %d, want one per enter", got)
			}
			if got := strings.Count(out, "  chime "); got != 3*tt.wantEnter {
				t.Errorf("chime tones = %d, want three per enter", got)
			}
		})
	}
}

func TestSimulate_JSON(t *testing.T) {
	out, err := run(t, "simulate", "--json", "--fingers", "4,2,4,0")
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}

	var events []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var u app.Update
		if err := json.Unmarshal(scanner.Bytes(), &u); err != nil {
			t.Fatalf("line is not an update: %v\n%s", err, scanner.Text())
		}
		events = append(events, u.Event)
	}

	if len(events) != 2 || events[0] != "ENTER_TRANSFORMED" || events[1] != "EXIT_TRANSFORMED" {
		t.Errorf("events = %v, want [ENTER_TRANSFORMED EXIT_TRANSFORMED]", events)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Setenv("KAISHOU_THRESHOLD", "-1")

	if _, err := run(t, "simulate"); err == nil {
		t.Fatal("expected a validation error for a negative threshold")
	}
}

func TestRoot_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("KAISHOU_THRESHOLD", "-1")

	if _, err := run(t, "--threshold", "0.2", "simulate", "--fingers", "4"); err != nil {
		t.Fatalf("flag should override the invalid environment value: %v", err)
	}
}

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()
	t.Chdir(t.TempDir())

	if got := findWebDir(dataDir); got != "" {
		t.Errorf("findWebDir() = %q, want empty without a web directory", got)
	}
}
