package job

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	job := New("static/uploads/clip.mp4")

	if !strings.HasPrefix(job.ID, "split-") {
		t.Errorf("expected split- prefixed ID, got %s", job.ID)
	}
	if job.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, job.Status)
	}
	if job.VideoPath != "static/uploads/clip.mp4" {
		t.Errorf("unexpected video path %s", job.VideoPath)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if job.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
	if job.Frames == nil {
		t.Error("expected Frames to be initialized")
	}
}

func TestNewWithID(t *testing.T) {
	id := "test-job-123"
	job := NewWithID(id, "clip.mp4")

	if job.ID != id {
		t.Errorf("expected ID %s, got %s", id, job.ID)
	}
	if job.Status != StatusRunning {
		t.Errorf("expected status %s, got %s", StatusRunning, job.Status)
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		// Valid transitions
		{"RUNNING to COMPLETED", StatusRunning, StatusCompleted, false},
		{"RUNNING to FAILED", StatusRunning, StatusFailed, false},
		{"COMPLETED to PURGED", StatusCompleted, StatusPurged, false},
		{"FAILED to PURGED", StatusFailed, StatusPurged, false},
		// Invalid transitions
		{"RUNNING to PURGED", StatusRunning, StatusPurged, true},
		{"RUNNING to RUNNING", StatusRunning, StatusRunning, true},
		{"COMPLETED to RUNNING", StatusCompleted, StatusRunning, true},
		{"COMPLETED to FAILED", StatusCompleted, StatusFailed, true},
		{"FAILED to COMPLETED", StatusFailed, StatusCompleted, true},
		{"PURGED to RUNNING", StatusPurged, StatusRunning, true},
		{"PURGED to PURGED", StatusPurged, StatusPurged, true},
		{"unknown to COMPLETED", Status("UNKNOWN"), StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("test", "clip.mp4")
			job.Status = tt.from

			err := job.TransitionTo(tt.to)

			if tt.wantErr && err != ErrInvalidTransition {
				t.Errorf("expected ErrInvalidTransition for %s -> %s, got %v", tt.from, tt.to, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_Complete(t *testing.T) {
	job := New("clip.mp4")
	before := time.Now()

	if err := job.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, job.Status)
	}
	if job.CompletedAt.Before(before) {
		t.Error("expected CompletedAt to be set after test start")
	}
}

func TestJob_Fail(t *testing.T) {
	job := New("clip.mp4")

	errMsg := "write failure: no space left on device"
	if err := job.Fail(errMsg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.Error != errMsg {
		t.Errorf("expected error %q, got %q", errMsg, job.Error)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set on failure")
	}
}

func TestJob_Purge(t *testing.T) {
	job := New("clip.mp4")
	job.SetFrames([]Frame{{Index: 0, Path: "frames/frame_0.jpg"}})
	_ = job.Complete()

	if err := job.Purge(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusPurged {
		t.Errorf("expected status %s, got %s", StatusPurged, job.Status)
	}
	if len(job.Frames) != 0 {
		t.Errorf("expected frames to be cleared, got %d", len(job.Frames))
	}
	if job.PurgedAt.IsZero() {
		t.Error("expected PurgedAt to be set")
	}
}

func TestJob_Purge_WhileRunning(t *testing.T) {
	job := New("clip.mp4")
	job.SetFrames([]Frame{{Index: 0, Path: "frames/frame_0.jpg"}})

	if err := job.Purge(); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if len(job.Frames) != 1 {
		t.Error("frames should be kept when purge is rejected")
	}
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusPurged, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := NewWithID("test", "clip.mp4")
			job.Status = tt.status

			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestJob_SetSampling(t *testing.T) {
	job := New("clip.mp4")

	job.SetSampling("static/frames/x", 48, 100, 2)

	if job.FramesDir != "static/frames/x" {
		t.Errorf("unexpected frames dir %s", job.FramesDir)
	}
	if job.FrameRate != 48 || job.FrameCount != 100 || job.Interval != 2 {
		t.Errorf("unexpected sampling %v/%d/%d", job.FrameRate, job.FrameCount, job.Interval)
	}
}

func TestJob_SetFrames_Copies(t *testing.T) {
	job := New("clip.mp4")
	frames := []Frame{{Index: 0, Path: "a"}, {Index: 2, Path: "b"}}

	job.SetFrames(frames)
	frames[0].Path = "changed"

	if job.Frames[0].Path != "a" {
		t.Error("SetFrames should copy the slice")
	}
	paths := job.FramePaths()
	if len(paths) != 2 || paths[0] != "a" || paths[1] != "b" {
		t.Errorf("unexpected frame paths %v", paths)
	}
}

func TestJob_Clone(t *testing.T) {
	job := New("clip.mp4")
	job.SetSampling("frames", 30, 10, 1)
	job.SetFrames([]Frame{{Index: 0, Path: "frames/frame_0.jpg"}})

	clone := job.Clone()

	// Verify clone has same values
	if clone.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, clone.ID)
	}
	if clone.Status != job.Status {
		t.Errorf("expected Status %s, got %s", job.Status, clone.Status)
	}
	if clone.FrameRate != job.FrameRate {
		t.Errorf("expected FrameRate %v, got %v", job.FrameRate, clone.FrameRate)
	}

	// Verify clone is independent
	clone.Status = StatusCompleted
	if job.Status == StatusCompleted {
		t.Error("modifying clone should not affect original")
	}

	// Verify frames are independent
	clone.Frames[0].Path = "other"
	if job.Frames[0].Path == "other" {
		t.Error("modifying clone frames should not affect original")
	}
}

func TestJob_GetStatus_ThreadSafe(t *testing.T) {
	job := New("clip.mp4")

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			_ = job.GetStatus()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = job.Complete()
		}
		done <- true
	}()

	<-done
	<-done
}
