package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// skipIfNoFFmpeg skips the test if ffmpeg or ffprobe is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH, skipping test", bin)
		}
	}
}

// createTestVideo creates a small constant-frame-rate test video using ffmpeg.
func createTestVideo(t *testing.T, path string, fps, frames int) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=size=64x48:rate=%d", fps),
		"-frames:v", fmt.Sprintf("%d", frames),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\noutput: %s", err, output)
	}
}

func TestNewFFmpegDecoder(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		d := NewFFmpegDecoder("")
		if d.ffmpegPath != "ffmpeg" {
			t.Errorf("expected default path 'ffmpeg', got %q", d.ffmpegPath)
		}
	})

	t.Run("custom path", func(t *testing.T) {
		d := NewFFmpegDecoder("/opt/bin/ffmpeg")
		if d.ffmpegPath != "/opt/bin/ffmpeg" {
			t.Errorf("unexpected path %q", d.ffmpegPath)
		}
	})
}

func TestOpen_MissingFile(t *testing.T) {
	d := NewFFmpegDecoder("")

	_, err := d.Open(context.Background(), "/non/existent/video.mp4")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestOpen_NotAVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "notes.mp4")
	if err := os.WriteFile(path, []byte("definitely not a video"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewFFmpegDecoder("").Open(context.Background(), path)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	var ffErr *FFmpegError
	if !errors.As(err, &ffErr) {
		t.Errorf("expected FFmpegError in chain, got %T", err)
	}
}

func TestOpen_DecodesEveryFrame(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, path, 30, 45)

	stream, err := NewFFmpegDecoder("").Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if math.Abs(stream.FrameRate()-30) > 0.01 {
		t.Errorf("FrameRate() = %v, want 30", stream.FrameRate())
	}
	if stream.FrameCount() != 45 {
		t.Errorf("FrameCount() = %d, want 45", stream.FrameCount())
	}

	decoded := 0
	for {
		img, ok := stream.Next()
		if !ok {
			break
		}
		if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
			t.Fatalf("frame %d has size %dx%d", decoded, b.Dx(), b.Dy())
		}
		decoded++
	}

	if decoded != 45 {
		t.Errorf("decoded %d frames, want 45", decoded)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, ok := stream.Next(); ok {
		t.Error("Next() after end of stream should return false")
	}
}

func TestOpen_CloseBeforeDrained(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, path, 25, 50)

	stream, err := NewFFmpegDecoder("").Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, ok := stream.Next(); !ok {
		t.Fatal("expected a first frame")
	}

	if err := stream.Close(); err != nil {
		t.Errorf("Close() on an undrained stream should not report the kill, got %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestInspect(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, path, 48, 24)

	info, err := NewFFmpegDecoder("").Inspect(context.Background(), path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", info.Width, info.Height)
	}
	if math.Abs(info.FrameRate-48) > 0.01 {
		t.Errorf("FrameRate = %v, want 48", info.FrameRate)
	}
	if info.FrameCount != 24 {
		t.Errorf("FrameCount = %d, want 24", info.FrameCount)
	}
}

func TestInspect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFFmpegDecoder("").Inspect(ctx, "/some/video.mp4")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInspect_DeadlinePassed(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := NewFFmpegDecoder("").Inspect(ctx, "/some/video.mp4")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestOpen_MissingBinary(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "clip.mp4")
	createTestVideo(t, path, 30, 5)

	_, err := NewFFmpegDecoder(filepath.Join(t.TempDir(), "no-such-ffmpeg")).Open(context.Background(), path)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the missing binary in the chain, got %v", err)
	}
}

func TestFFmpegError(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &FFmpegError{
		Args:   []string{"-i", "in.mp4"},
		Stderr: "Invalid data found when processing input",
		Err:    inner,
	}

	if !errors.Is(err, inner) {
		t.Error("FFmpegError should unwrap to the inner error")
	}
	msg := err.Error()
	for _, want := range []string{"exit status 1", "in.mp4", "Invalid data"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q should contain %q", msg, want)
		}
	}
}
