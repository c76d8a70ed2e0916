// Package media composes presentation videos from a PDF deck, a timing
// description, and a speaker recording, shelling out to poppler and ffmpeg.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
	"github.com/DrPeryCox/pres-gen-new/pkg/runner"
)

// PDFTools wraps the poppler-utils binaries.
type PDFTools struct {
	runner      runner.CommandRunner
	pdftoppmBin string
	pdfinfoBin  string
}

func NewPDFTools(r runner.CommandRunner, pdftoppmBin, pdfinfoBin string) *PDFTools {
	if pdftoppmBin == "" {
		pdftoppmBin = "pdftoppm"
	}
	if pdfinfoBin == "" {
		pdfinfoBin = "pdfinfo"
	}
	return &PDFTools{runner: r, pdftoppmBin: pdftoppmBin, pdfinfoBin: pdfinfoBin}
}

// PageCount reads the page count from pdfinfo output.
func (p *PDFTools) PageCount(ctx context.Context, pdfPath string) (int, error) {
	output, err := p.runner.RunCommand(ctx, p.pdfinfoBin, pdfPath)
	if err != nil {
		return 0, errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("pdfinfo failed for %s: %s", pdfPath, output), err)
	}
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("unparseable page count in pdfinfo output: %q", line), err)
		}
		return n, nil
	}
	return 0, errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("no page count in pdfinfo output for %s", pdfPath), nil)
}

// SlidesToImages renders every PDF page into a PNG under outputDir and
// returns the image paths in page order.
func (p *PDFTools) SlidesToImages(ctx context.Context, pdfPath, outputDir string) ([]string, error) {
	logger.Infof("converting PDF %s to images in %s", pdfPath, outputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.New(errs.CodeIoError, "media", fmt.Sprintf("failed to create %s", outputDir), err)
	}

	prefix := filepath.Join(outputDir, "slide")
	if output, err := p.runner.RunCommand(ctx, p.pdftoppmBin, "-png", pdfPath, prefix); err != nil {
		return nil, errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("pdftoppm failed for %s: %s", pdfPath, output), err)
	}

	// pdftoppm zero-pads page numbers, so a lexical sort is page order.
	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, errs.New(errs.CodeIoError, "media", "failed to list rendered slides", err)
	}
	sort.Strings(images)
	if len(images) == 0 {
		return nil, errs.New(errs.CodeCommandFailed, "media", fmt.Sprintf("pdftoppm produced no images for %s", pdfPath), nil)
	}
	return images, nil
}
