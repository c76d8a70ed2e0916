package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/jobs"
)

// toolRunner simulates pdfinfo, pdftoppm, and ffmpeg: it answers pdfinfo with
// a fixed page count and creates the output files the real tools would.
type toolRunner struct {
	pages   int
	failArg string // fail any command whose args contain this string
	calls   [][]string
}

func (s *toolRunner) RunCommand(ctx context.Context, args ...string) (string, error) {
	s.calls = append(s.calls, args)
	for _, a := range args {
		if s.failArg != "" && a == s.failArg {
			return "simulated tool failure", errors.New("exit status 1")
		}
	}
	switch args[0] {
	case "pdfinfo":
		return fmt.Sprintf("Title: deck\nPages: %d\n", s.pages), nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%02d.png", prefix, i), []byte("png"), 0644); err != nil {
				return "", err
			}
		}
		return "", nil
	case "ffmpeg":
		// Last argument is always the output file.
		return "", os.WriteFile(args[len(args)-1], []byte("video"), 0644)
	}
	return "", fmt.Errorf("unexpected command %q", args[0])
}

func (s *toolRunner) RunCommandStderr(ctx context.Context, args ...string) (string, error) {
	return s.RunCommand(ctx, args...)
}

func newTestComposer(r *toolRunner) *Composer {
	return NewComposer(NewFFmpeg(r, "ffmpeg"), NewPDFTools(r, "pdftoppm", "pdfinfo"))
}

func writeTiming(t *testing.T, dir string, content string) string {
	t.Helper()
	p := filepath.Join(dir, "timing.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

const twoSlideTiming = `{"slides": [
  {"title": "Intro", "start": 0, "end": 30},
  {"title": "Detail", "start": 30, "end": 95}
]}`

func TestCompose(t *testing.T) {
	dir := t.TempDir()
	timing := writeTiming(t, dir, twoSlideTiming)
	output := filepath.Join(dir, "out", "final.mp4")

	tools := &toolRunner{pages: 2}
	err := newTestComposer(tools).Compose(context.Background(), timing, "deck.pdf", "speaker.mp4", output)
	require.NoError(t, err)

	// The final video exists and every intermediate is gone.
	_, err = os.Stat(output)
	require.NoError(t, err)
	leftovers, err := filepath.Glob(filepath.Join(dir, "out", "compose-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "scratch directory must be removed")

	// pdfinfo + pdftoppm + (cut, still, resize, hstack) per slide + concat.
	assert.Len(t, tools.calls, 2+4*2+1)
}

func TestComposeSlideCountMismatch(t *testing.T) {
	dir := t.TempDir()
	timing := writeTiming(t, dir, twoSlideTiming)

	tools := &toolRunner{pages: 3}
	err := newTestComposer(tools).Compose(context.Background(), timing, "deck.pdf", "speaker.mp4", filepath.Join(dir, "final.mp4"))
	assert.True(t, errs.HasCode(err, errs.CodeSlideCountMismatch), "got %v", err)
	// Only pdfinfo ran; nothing was rendered.
	assert.Len(t, tools.calls, 1)
}

func TestComposeStepFailureAbortsAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	timing := writeTiming(t, dir, twoSlideTiming)
	output := filepath.Join(dir, "final.mp4")

	tools := &toolRunner{pages: 2, failArg: "[0:v][1:v]hstack=inputs=2[v]"}
	err := newTestComposer(tools).Compose(context.Background(), timing, "deck.pdf", "speaker.mp4", output)
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeCommandFailed))

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
	leftovers, _ := filepath.Glob(filepath.Join(dir, "compose-*"))
	assert.Empty(t, leftovers, "scratch directory must be removed on failure too")
}

func TestComposeRejectsNonPositiveDuration(t *testing.T) {
	dir := t.TempDir()
	timing := writeTiming(t, dir, `{"slides": [{"title": "bad", "start": 30, "end": 30}]}`)

	tools := &toolRunner{pages: 1}
	err := newTestComposer(tools).Compose(context.Background(), timing, "deck.pdf", "speaker.mp4", filepath.Join(dir, "final.mp4"))
	assert.True(t, errs.HasCode(err, errs.CodeCompositionFailed), "got %v", err)
}

func TestComposeMissingTimingFile(t *testing.T) {
	tools := &toolRunner{pages: 1}
	err := newTestComposer(tools).Compose(context.Background(), "nope.json", "deck.pdf", "speaker.mp4", filepath.Join(t.TempDir(), "final.mp4"))
	assert.True(t, errs.HasCode(err, errs.CodeIoError), "got %v", err)
}

func TestPageCountParsing(t *testing.T) {
	tools := &toolRunner{pages: 7}
	pdf := NewPDFTools(tools, "pdftoppm", "pdfinfo")
	n, err := pdf.PageCount(context.Background(), "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestComposerTask(t *testing.T) {
	dir := t.TempDir()
	timing := writeTiming(t, dir, twoSlideTiming)
	tools := &toolRunner{pages: 2}
	task := newTestComposer(tools).Task()

	job := jobs.NewJob(timing, "deck.pdf", "speaker.mp4")
	job.ResultPath = filepath.Join(dir, "final.mp4")

	var progressed []string
	err := task(context.Background(), job, func(detail string) { progressed = append(progressed, detail) })
	require.NoError(t, err)
	assert.Equal(t, []string{"composing video"}, progressed)
	assert.FileExists(t, job.ResultPath)
}

func TestComposerTaskWrongInputCount(t *testing.T) {
	task := newTestComposer(&toolRunner{pages: 1}).Task()
	err := task(context.Background(), jobs.NewJob("only.json"), func(string) {})
	assert.True(t, errs.HasCode(err, errs.CodeInvalidParameter), "got %v", err)
}

func TestSlidesToImagesOrdered(t *testing.T) {
	dir := t.TempDir()
	tools := &toolRunner{pages: 12}
	pdf := NewPDFTools(tools, "pdftoppm", "pdfinfo")

	images, err := pdf.SlidesToImages(context.Background(), "deck.pdf", dir)
	require.NoError(t, err)
	require.Len(t, images, 12)
	assert.Contains(t, images[0], "slide-01.png")
	assert.Contains(t, images[11], "slide-12.png")
}
