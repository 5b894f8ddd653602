package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/dantranh/pkg/export"
	"github.com/haivivi/dantranh/pkg/ornament"
	"github.com/haivivi/dantranh/pkg/scene"
)

const testSong = `id: test-song
title: Test Song
tempo: 120
notes:
  - {pitch: D4, duration: 1, lyric: "một"}
  - {pitch: A4, duration: 0.25, grace: true}
  - {pitch: E4, duration: 1.5}
  - {pitch: G4, duration: 1}
`

// setupTestEnv writes a config and a song into a temp dir and returns
// their paths.
func setupTestEnv(t *testing.T, cfg string) (cfgPath, songPath string) {
	t.Helper()
	cfgPath = writeTestFile(t, "config.yaml", cfg)
	songPath = writeTestFile(t, "song.yaml", testSong)
	return
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)

	verbose = false
	configPath = ""
	globalConfig = nil

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "tranh") {
		t.Fatalf("expected 'tranh', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestRenderSVG(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	stdout, stderr, code := runCmd(t, "render", song, "--config", cfg, "--tap", "third")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout), "<svg") {
		t.Fatalf("expected SVG, got: %.80s", stdout)
	}
	if !strings.Contains(stdout, `class="tap"`) {
		t.Error("tap markers missing")
	}
}

func TestRenderSnapshot(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	out := filepath.Join(t.TempDir(), "scene.json")
	_, stderr, code := runCmd(t, "render", song, "--config", cfg,
		"--format", "json", "--glissando", "all", "--vibrato", "D", "--zoom-x", "2", "-o", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var snap scene.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	count := make(map[string]int)
	for _, l := range snap.Layers {
		count[l.Name] = len(l.Shapes)
	}
	if count[ornament.LayerGlissando] == 0 {
		t.Error("no glissando shapes")
	}
	if count[ornament.LayerVibrato] != 1 {
		t.Errorf("vibrato shapes = %d, want 1", count[ornament.LayerVibrato])
	}
}

func TestRenderErrors(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"last note glissando", []string{"--glissando", "3"}, "cannot start a glissando"},
		{"bad index", []string{"--glissando", "x"}, "invalid note index"},
		{"bad tap", []string{"--tap", "sideways"}, "tap mode"},
		{"bad zoom", []string{"--zoom-x", "0"}, "scale"},
		{"bad vibrato", []string{"--amplitude", "-1"}, "vibrato"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", song, "--config", cfg}, tt.args...)
			_, stderr, code := runCmd(t, args...)
			if code == 0 {
				t.Fatal("expected error")
			}
			if !strings.Contains(stderr, tt.want) {
				t.Fatalf("expected %q, got: %s", tt.want, stderr)
			}
		})
	}
}

func TestRenderMissingSong(t *testing.T) {
	cfg, _ := setupTestEnv(t, "tuning: bac\n")
	_, _, code := runCmd(t, "render", "/nonexistent.yaml", "--config", cfg)
	if code == 0 {
		t.Fatal("expected error for nonexistent song")
	}
}

func TestScheduleJSON(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	stdout, stderr, code := runCmd(t, "schedule", song, "--config", cfg, "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var rows []scheduleRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	if !rows[1].Grace || rows[1].DurationMs != 31.25 {
		t.Errorf("grace row = %+v", rows[1])
	}
	if rows[2].FireAtMs != 531.25 || rows[2].DurationMs != 750 {
		t.Errorf("row 2 = %+v", rows[2])
	}
	if rows[0].Lyric != "một" {
		t.Errorf("lyric = %q", rows[0].Lyric)
	}
}

func TestScheduleTempoAndFilter(t *testing.T) {
	cfg, song := setupTestEnv(t, "tempo: 60\n")
	stdout, stderr, code := runCmd(t, "schedule", song, "--config", cfg,
		"--format", "json", "--filter", `.class == "E" or .class == "G"`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var rows []scheduleRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Index != 2 || rows[1].FireAtMs != 1500 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestScheduleTable(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	stdout, stderr, code := runCmd(t, "schedule", song, "--config", cfg, "--from", "2")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"PITCH", "E4", "G4", "test-song"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("table missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "D4") {
		t.Error("--from 2 still lists the first note")
	}
}

func TestScheduleErrors(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	tests := []struct {
		name string
		args []string
	}{
		{"nothing selected", []string{"--filter", "false"}},
		{"bad filter", []string{"--filter", ".["}},
		{"from out of range", []string{"--from", "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"schedule", song, "--config", cfg}, tt.args...)
			if _, _, code := runCmd(t, args...); code == 0 {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPlayWAV(t *testing.T) {
	cfg, song := setupTestEnv(t, "audio:\n  sample_rate: 16000\n")
	out := filepath.Join(t.TempDir(), "song.wav")
	stdout, stderr, code := runCmd(t, "play", song, "--config", cfg, "--wav", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "4 notes") {
		t.Errorf("stdout = %s", stdout)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	samples, rate, err := export.ReadWAV(f)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d", rate)
	}
	// 1781.25 ms of schedule plus the ring of the last pluck.
	if want := 16000 * 1781 / 1000; len(samples) < want {
		t.Errorf("samples = %d, want at least %d", len(samples), want)
	}
}

func TestPlayRealtime(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	stdout, stderr, code := runCmd(t, "play", song, "--config", cfg, "--tempo", "1200")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if n := strings.Count(stdout, "string "); n != 4 {
		t.Errorf("highlighted %d notes, want 4:\n%s", n, stdout)
	}
	if !strings.Contains(stdout, "một") {
		t.Error("lyric missing from highlight line")
	}
}

func TestPlayFilteredWithSinks(t *testing.T) {
	cfg, song := setupTestEnv(t, "audio:\n  sample_rate: 16000\n")
	pcmPath := filepath.Join(t.TempDir(), "out.pcm")
	stdout, stderr, code := runCmd(t, "play", song, "--config", cfg, "--tempo", "1200",
		"--filter", ".grace | not", "--live", "127.0.0.1:0", "--pcm", pcmPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "ws://127.0.0.1:") {
		t.Errorf("live address missing:\n%s", stdout)
	}
	if n := strings.Count(stdout, "string "); n != 3 {
		t.Errorf("highlighted %d notes, want 3", n)
	}
	info, err := os.Stat(pcmPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 || info.Size()%2 != 0 {
		t.Errorf("pcm size = %d", info.Size())
	}
}

func TestMIDI(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	out := filepath.Join(t.TempDir(), "song.mid")
	_, stderr, code := runCmd(t, "midi", song, "--config", cfg, "-o", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("MThd")) {
		t.Errorf("not a MIDI file: % x", data[:min(8, len(data))])
	}

	if _, _, code := runCmd(t, "midi", song, "--config", cfg, "--channel", "16"); code == 0 {
		t.Error("channel 16 accepted")
	}
}

func TestStrings(t *testing.T) {
	cfg, song := setupTestEnv(t, "tuning: bac\n")
	stdout, stderr, code := runCmd(t, "strings", song, "--config", cfg, "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var res stringsResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Strings) != 4 || res.Signature == "" {
		t.Errorf("result = %+v", res)
	}
	if res.Cache.Misses != 1 {
		t.Errorf("cache = %+v", res.Cache)
	}

	stdout, _, code = runCmd(t, "strings", song, "--config", cfg)
	if code != 0 || !strings.Contains(stdout, "STRING") {
		t.Errorf("table output: %s", stdout)
	}
}

func TestStringsPersistentCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cfg, song := setupTestEnv(t, "cache_dir: "+dir+"\n")

	var stats []stringsResult
	for range 2 {
		stdout, stderr, code := runCmd(t, "strings", song, "--config", cfg, "--format", "json")
		if code != 0 {
			t.Fatalf("exit %d: %s", code, stderr)
		}
		var res stringsResult
		if err := json.Unmarshal([]byte(stdout), &res); err != nil {
			t.Fatal(err)
		}
		stats = append(stats, res)
	}
	if stats[0].Cache.Misses != 1 || stats[1].Cache.StoreHits != 1 {
		t.Errorf("cache = %+v then %+v", stats[0].Cache, stats[1].Cache)
	}
	if stats[0].Signature != stats[1].Signature {
		t.Error("signature changed across runs")
	}
}
