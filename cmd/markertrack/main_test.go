package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMarkerFrame(t *testing.T, dir, name string, x, y int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	for i := range img.Pix {
		img.Pix[i] = 0
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	img.Set(x, y, color.NRGBA{255, 0, 0, 255})

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--version"}, nil, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code: got %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "markertrack "+Version) {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		args []string
		code int
	}{
		{nil, 2},
		{[]string{"bogus"}, 2},
		{[]string{"help"}, 0},
	}

	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), tt.args, nil, &stdout, &stderr)
		if code != tt.code {
			t.Errorf("%v: exit code %d, want %d", tt.args, code, tt.code)
		}
		if !strings.Contains(stdout.String()+stderr.String(), "Usage:") {
			t.Errorf("%v: usage not printed", tt.args)
		}
	}
}

func TestRun_Measure(t *testing.T) {
	dir := t.TempDir()
	writeMarkerFrame(t, dir, "img_001.png", 10, 10)
	writeMarkerFrame(t, dir, "img_002.png", 20, 10)
	out := filepath.Join(t.TempDir(), "report")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"measure", "-env-file", "", "-scale", "0.1", "-output", out, "-log-level", "error", dir,
	}, nil, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code: got %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Image 1: img_001.png") {
		t.Errorf("summary missing first frame: %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(out, "distances.csv")); err != nil {
		t.Errorf("distances.csv not written: %v", err)
	}
}

func TestRun_MeasureInvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"measure", "-env-file", "", t.TempDir()}, nil, &stdout, &stderr)

	if code != 2 {
		t.Errorf("missing scale: exit code %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Scale") {
		t.Errorf("error should name the field: %q", stderr.String())
	}
}

func TestRun_MeasureEmptyDir(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"measure", "-env-file", "", "-scale", "1", "-log-level", "error", t.TempDir(),
	}, nil, &stdout, &stderr)

	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
}

func TestRun_Serve(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"serve"}, in, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code: got %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"id":1`) {
		t.Errorf("ping response missing: %q", stdout.String())
	}
}

func TestRun_ServeLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("MARKERTRACK_LOG_LEVEL", "warn")
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"serve", "-env-file", ""}, in, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("exit code: got %d, stderr: %s", code, stderr.String())
	}
	if strings.Contains(stderr.String(), "server started") {
		t.Errorf("info line logged at warn level: %q", stderr.String())
	}
}

func TestRun_ServeInvalidLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"serve", "-log-level", "loud"}, strings.NewReader(""), &stdout, &stderr)

	if code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should reach the protocol stream: %q", stdout.String())
	}
}
