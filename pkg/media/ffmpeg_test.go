package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/runner"
)

func TestCutArgs(t *testing.T) {
	fake := &runner.FakeCommandRunner{}
	f := NewFFmpeg(fake, "ffmpeg")

	require.NoError(t, f.Cut(context.Background(), "in.mp4", 2, 34.5, "out.mp4"))
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, []string{
		"ffmpeg", "-ss", "2", "-to", "34.5", "-i", "in.mp4", "-hide_banner",
		"-c:v", "libx264", "-c:a", "aac", "-y", "out.mp4",
	}, fake.Calls[0])
}

func TestStillToVideoArgs(t *testing.T) {
	fake := &runner.FakeCommandRunner{}
	f := NewFFmpeg(fake, "ffmpeg")

	require.NoError(t, f.StillToVideo(context.Background(), "slide.png", 32, "slide.mp4"))
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, []string{
		"ffmpeg", "-loop", "1", "-i", "slide.png", "-hide_banner",
		"-t", "32", "-vf", "scale=1080:1080", "-c:v", "libx264", "-y", "slide.mp4",
	}, fake.Calls[0])
}

func TestSideBySideMapsSpeakerAudio(t *testing.T) {
	fake := &runner.FakeCommandRunner{}
	f := NewFFmpeg(fake, "ffmpeg")

	require.NoError(t, f.SideBySide(context.Background(), "slide.mp4", "speaker.mp4", "combined.mp4"))
	call := fake.Calls[0]
	assert.Contains(t, call, "[0:v][1:v]hstack=inputs=2[v]")
	assert.Contains(t, call, "1:a?", "audio must come from the speaker input, tolerating silence")
}

func TestConcatCopiesStreams(t *testing.T) {
	fake := &runner.FakeCommandRunner{}
	f := NewFFmpeg(fake, "ffmpeg")

	require.NoError(t, f.Concat(context.Background(), "inputs.txt", "final.mp4"))
	call := fake.Calls[0]
	assert.Contains(t, call, "concat")
	assert.Contains(t, call, "-safe")
	assert.Contains(t, call, "copy", "concat must not re-encode")
}

func TestFFmpegFailureWrapsOutput(t *testing.T) {
	fake := &runner.FakeCommandRunner{Output: "Unknown encoder 'libx264'", ErrStr: "exit status 1"}
	f := NewFFmpeg(fake, "ffmpeg")

	err := f.Resize(context.Background(), "in.mp4", "out.mp4")
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeCommandFailed))
	assert.Contains(t, err.Error(), "Unknown encoder")
}
