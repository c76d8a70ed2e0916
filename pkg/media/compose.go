package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DrPeryCox/pres-gen-new/pkg/deck"
	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/jobs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

// Composer builds the final presentation video: for every slide it cuts the
// matching speaker segment, renders the slide page as a clip of the same
// duration, stacks them side by side, and concatenates all fragments.
type Composer struct {
	ffmpeg *FFmpeg
	pdf    *PDFTools
}

func NewComposer(ffmpeg *FFmpeg, pdf *PDFTools) *Composer {
	return &Composer{ffmpeg: ffmpeg, pdf: pdf}
}

// Compose runs the whole pipeline. Intermediate files live in a scratch
// directory next to the output and are removed even when composition fails;
// only outputPath survives.
func (c *Composer) Compose(ctx context.Context, timingPath, pdfPath, videoPath, outputPath string) error {
	timingData, err := os.ReadFile(timingPath)
	if err != nil {
		return errs.New(errs.CodeIoError, "media", fmt.Sprintf("failed to read timing file %s", timingPath), err)
	}
	timing, err := deck.ParseDeck(timingData)
	if err != nil {
		return err
	}

	pages, err := c.pdf.PageCount(ctx, pdfPath)
	if err != nil {
		return err
	}
	if len(timing.Slides) != pages {
		return errs.New(errs.CodeSlideCountMismatch, "media",
			fmt.Sprintf("slide count mismatch: %d in timing JSON, %d pages in PDF", len(timing.Slides), pages), nil)
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errs.New(errs.CodeIoError, "media", fmt.Sprintf("failed to create %s", outDir), err)
	}
	scratch, err := os.MkdirTemp(outDir, "compose-*")
	if err != nil {
		return errs.New(errs.CodeIoError, "media", "failed to create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	images, err := c.pdf.SlidesToImages(ctx, pdfPath, scratch)
	if err != nil {
		return err
	}
	if len(images) < len(timing.Slides) {
		return errs.New(errs.CodeCompositionFailed, "media",
			fmt.Sprintf("expected %d slide images, got %d", len(timing.Slides), len(images)), nil)
	}

	var fragments []string
	for i, slide := range timing.Slides {
		logger.Infof("processing slide %d/%d: %q", i+1, len(timing.Slides), slide.Title)

		duration := slide.End - slide.Start
		if duration <= 0 {
			return errs.New(errs.CodeCompositionFailed, "media",
				fmt.Sprintf("slide %d has non-positive duration (start=%v end=%v)", i+1, slide.Start, slide.End), nil)
		}

		speakerCut := filepath.Join(scratch, fmt.Sprintf("speaker_%02d.mp4", i))
		if err := c.ffmpeg.Cut(ctx, videoPath, slide.Start, slide.End, speakerCut); err != nil {
			return err
		}

		slideClip := filepath.Join(scratch, fmt.Sprintf("slide_%02d.mp4", i))
		if err := c.ffmpeg.StillToVideo(ctx, images[i], duration, slideClip); err != nil {
			return err
		}

		speakerResized := filepath.Join(scratch, fmt.Sprintf("speaker_%02d_resized.mp4", i))
		if err := c.ffmpeg.Resize(ctx, speakerCut, speakerResized); err != nil {
			return err
		}

		combined := filepath.Join(scratch, fmt.Sprintf("combined_%02d.mp4", i))
		if err := c.ffmpeg.SideBySide(ctx, slideClip, speakerResized, combined); err != nil {
			return err
		}
		fragments = append(fragments, combined)
	}

	listFile := filepath.Join(scratch, "inputs.txt")
	if err := writeConcatList(listFile, fragments); err != nil {
		return err
	}
	if err := c.ffmpeg.Concat(ctx, listFile, outputPath); err != nil {
		return err
	}

	logger.Infof("composed presentation video at %s", outputPath)
	return nil
}

// Task adapts the composer to the job pool. Job input paths are the timing
// JSON, the slide PDF and the speaker video, in that order; the job's result
// path receives the composed video.
func (c *Composer) Task() jobs.Task {
	return func(ctx context.Context, job jobs.Job, progress func(string)) error {
		if len(job.InputPaths) != 3 {
			return errs.New(errs.CodeInvalidParameter, "media",
				fmt.Sprintf("expected 3 input files (timing, pdf, video), got %d", len(job.InputPaths)), nil)
		}
		progress("composing video")
		return c.Compose(ctx, job.InputPaths[0], job.InputPaths[1], job.InputPaths[2], job.ResultPath)
	}
}

func writeConcatList(listFile string, fragments []string) error {
	f, err := os.Create(listFile)
	if err != nil {
		return errs.New(errs.CodeIoError, "media", "failed to create concat list", err)
	}
	defer f.Close()
	for _, fragment := range fragments {
		if _, err := fmt.Fprintf(f, "file '%s'\n", fragment); err != nil {
			return errs.New(errs.CodeIoError, "media", "failed to write concat list", err)
		}
	}
	return nil
}
