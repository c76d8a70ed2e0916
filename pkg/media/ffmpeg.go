package media

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
	"github.com/DrPeryCox/pres-gen-new/pkg/runner"
)

// Fixed geometry of the composed frame: a 1080x1080 slide panel next to an
// 840x1080 speaker panel.
const (
	slideScale   = "scale=1080:1080"
	speakerScale = "scale=840:1080"
)

// FFmpeg wraps the ffmpeg operations the composer needs. Every method is one
// ffmpeg invocation; a non-zero exit is returned as a COMMAND_FAILED error
// carrying ffmpeg's output.
type FFmpeg struct {
	runner runner.CommandRunner
	bin    string
}

func NewFFmpeg(r runner.CommandRunner, bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{runner: r, bin: bin}
}

func (f *FFmpeg) run(ctx context.Context, what string, args ...string) error {
	output, err := f.runner.RunCommand(ctx, append([]string{f.bin}, args...)...)
	if err != nil {
		return errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("%s failed: %s", what, output), err)
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Cut extracts [start, end] from the input, re-encoding to libx264/aac.
func (f *FFmpeg) Cut(ctx context.Context, input string, start, end float64, output string) error {
	logger.Debugf("cutting %s [%s, %s]", input, seconds(start), seconds(end))
	return f.run(ctx, "video cut",
		"-ss", seconds(start),
		"-to", seconds(end),
		"-i", input,
		"-hide_banner",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-y",
		output)
}

// StillToVideo loops a still image into a clip of the given duration, scaled
// to the slide panel.
func (f *FFmpeg) StillToVideo(ctx context.Context, image string, duration float64, output string) error {
	logger.Debugf("rendering still %s for %ss", image, seconds(duration))
	return f.run(ctx, "still-to-video",
		"-loop", "1",
		"-i", image,
		"-hide_banner",
		"-t", seconds(duration),
		"-vf", slideScale,
		"-c:v", "libx264",
		"-y",
		output)
}

// Resize scales the speaker clip to its panel size.
func (f *FFmpeg) Resize(ctx context.Context, input, output string) error {
	return f.run(ctx, "video resize",
		"-i", input,
		"-hide_banner",
		"-vf", speakerScale,
		"-c:v", "libx264",
		"-y",
		output)
}

// SideBySide stacks the slide clip left of the speaker clip. Audio comes
// from the speaker input only, and only if it has any ("1:a?").
func (f *FFmpeg) SideBySide(ctx context.Context, slideVideo, speakerVideo, output string) error {
	return f.run(ctx, "side-by-side combine",
		"-i", slideVideo,
		"-i", speakerVideo,
		"-hide_banner",
		"-filter_complex", "[0:v][1:v]hstack=inputs=2[v]",
		"-map", "[v]",
		"-map", "1:a?",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-y",
		output)
}

// Concat joins the fragments listed in listFile without re-encoding.
func (f *FFmpeg) Concat(ctx context.Context, listFile, output string) error {
	return f.run(ctx, "fragment concat",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-hide_banner",
		"-c", "copy",
		"-y",
		output)
}
