package deck

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

const emuPerInch = 914400

// Slides are square, 10.8 by 10.8 inches, so the deck matches the square
// slide panel of the composed presentation video.
const slideSizeEMU = int64(10.8 * emuPerInch)

type rect struct {
	x, y, w, h int64
}

func inches(v float64) int64 { return int64(v * emuPerInch) }

var (
	titleRect  = rect{inches(0.5), inches(0.3), inches(9.8), inches(1.0)}
	centerRect = rect{inches(0.5), inches(1.5), inches(9.8), inches(8.8)}
	leftRect   = rect{inches(0.5), inches(1.5), inches(4.8), inches(8.8)}
	rightRect  = rect{inches(5.5), inches(1.5), inches(4.8), inches(8.8)}
)

// Generator turns a Deck into a .pptx (OOXML presentation) archive.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// media is one image extracted from a slide, destined for ppt/media/.
type media struct {
	name string // file name under ppt/media/
	data []byte
}

// Generate renders the deck into an in-memory .pptx archive. Any invalid
// slide aborts the whole generation with the slide index in the error.
func (g *Generator) Generate(d Deck) (io.Reader, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var slideXMLs []string
	var slideMedia [][]media
	mediaSeq := 0

	for i := range d.Slides {
		xmlContent, files, err := buildSlideXML(&d.Slides[i], &mediaSeq)
		if err != nil {
			return nil, errs.New(errs.CodeDeckGenerationFailed, "deck", fmt.Sprintf("slide %d", i+1), err)
		}
		slideXMLs = append(slideXMLs, xmlContent)
		slideMedia = append(slideMedia, files)
	}

	parts := map[string]string{
		"[Content_Types].xml":                          contentTypesXML(len(slideXMLs)),
		"_rels/.rels":                                  rootRelsXML,
		"ppt/presentation.xml":                         presentationXML(len(slideXMLs)),
		"ppt/_rels/presentation.xml.rels":              presentationRelsXML(len(slideXMLs)),
		"ppt/slideMasters/slideMaster1.xml":            slideMasterXML,
		"ppt/slideMasters/_rels/slideMaster1.xml.rels": slideMasterRelsXML,
		"ppt/slideLayouts/slideLayout1.xml":            slideLayoutXML,
		"ppt/slideLayouts/_rels/slideLayout1.xml.rels": slideLayoutRelsXML,
		"ppt/theme/theme1.xml":                         themeXML,
	}
	for i, content := range slideXMLs {
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = content
		parts[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)] = slideRelsXML(slideMedia[i])
	}

	for name, content := range parts {
		if err := writeZipEntry(zw, name, []byte(content)); err != nil {
			return nil, err
		}
	}
	for _, files := range slideMedia {
		for _, m := range files {
			if err := writeZipEntry(zw, "ppt/media/"+m.name, m.data); err != nil {
				return nil, err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errs.New(errs.CodeDeckGenerationFailed, "deck", "failed to finalize archive", err)
	}
	logger.Infof("generated deck with %d slides (%d bytes)", len(d.Slides), buf.Len())
	return &buf, nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errs.New(errs.CodeDeckGenerationFailed, "deck", fmt.Sprintf("failed to create archive entry %s", name), err)
	}
	if _, err := w.Write(data); err != nil {
		return errs.New(errs.CodeDeckGenerationFailed, "deck", fmt.Sprintf("failed to write archive entry %s", name), err)
	}
	return nil
}

// buildSlideXML renders one slide. mediaSeq numbers media files across the
// whole deck so names never collide.
func buildSlideXML(s *Slide, mediaSeq *int) (string, []media, error) {
	var files []media
	var relSeq int // rId1 is the layout; media rels start at rId2

	addMedia := func(b64 string) (string, error) {
		data, ext, err := decodeImage(b64)
		if err != nil {
			return "", err
		}
		*mediaSeq++
		relSeq++
		m := media{name: fmt.Sprintf("image%d.%s", *mediaSeq, ext), data: data}
		files = append(files, m)
		return fmt.Sprintf("rId%d", relSeq+1), nil
	}

	var shapes strings.Builder
	shapeID := 1

	nextID := func() int {
		shapeID++
		return shapeID
	}

	var background string
	if s.Background != "" {
		relID, err := addMedia(s.Background)
		if err != nil {
			return "", nil, fmt.Errorf("background: %w", err)
		}
		background = `<p:bg><p:bgPr><a:blipFill><a:blip r:embed="` + relID + `"/><a:stretch><a:fillRect/></a:stretch></a:blipFill><a:effectLst/></p:bgPr></p:bg>`
	}

	titleSize := s.FontSize
	if titleSize == 0 {
		titleSize = DefaultTitleFontSize
	}
	titleColor := Color{}
	if s.FontColor != nil {
		titleColor = *s.FontColor
	}
	title := s.Title
	if title == "" {
		title = " "
	}
	shapes.WriteString(textboxXML(nextID(), "Title", titleRect, []paragraph{{text: title, size: titleSize, color: titleColor, bold: true}}))

	renderPart := func(name string, part *ContentPart, r rect) error {
		if !part.Meaningful() {
			return nil
		}
		size := part.FontSize
		if size == 0 {
			size = DefaultPartFontSize
		}
		color := Color{}
		if part.FontColor != nil {
			color = *part.FontColor
		}
		switch {
		case part.Content != "":
			shapes.WriteString(textboxXML(nextID(), name, r, []paragraph{{text: part.Content, size: size, color: color}}))
		case len(part.BulletPoints) > 0:
			var paras []paragraph
			if part.BulletPointsHeader != "" {
				paras = append(paras, paragraph{text: part.BulletPointsHeader, size: size, color: color, bold: true})
			}
			for _, point := range part.BulletPoints {
				paras = append(paras, paragraph{text: "• " + point, size: size, color: color})
			}
			shapes.WriteString(textboxXML(nextID(), name, r, paras))
		case part.Image != "":
			relID, err := addMedia(part.Image)
			if err != nil {
				return fmt.Errorf("%s image: %w", name, err)
			}
			shapes.WriteString(pictureXML(nextID(), name, r, relID))
		}
		return nil
	}

	if s.CenterPart.Meaningful() {
		if err := renderPart("Content", s.CenterPart, centerRect); err != nil {
			return "", nil, err
		}
	} else {
		if err := renderPart("Left Content", s.LeftPart, leftRect); err != nil {
			return "", nil, err
		}
		if err := renderPart("Right Content", s.RightPart, rightRect); err != nil {
			return "", nil, err
		}
	}

	slide := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld>` +
		background +
		`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		shapes.String() +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
	return slide, files, nil
}

type paragraph struct {
	text  string
	size  int // points
	color Color
	bold  bool
}

func textboxXML(id int, name string, r rect, paras []paragraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, xmlEscape(name))
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, r.x, r.y, r.w, r.h)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	for _, p := range paras {
		bold := ""
		if p.bold {
			bold = ` b="1"`
		}
		fmt.Fprintf(&b, `<a:p><a:r><a:rPr lang="en-US" sz="%d"%s dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
			p.size*100, bold, p.color.Hex(), xmlEscape(p.text))
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func pictureXML(id int, name string, r rect, relID string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, xmlEscape(name), relID, r.x, r.y, r.w, r.h)
}

// decodeImage decodes a base64 image, tolerating a data-URI prefix, and
// sniffs the format from the magic bytes.
func decodeImage(b64 string) ([]byte, string, error) {
	if idx := strings.Index(b64, ","); idx >= 0 {
		b64 = b64[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	switch {
	case len(data) >= 4 && bytes.HasPrefix(data, []byte("\x89PNG")):
		return data, "png", nil
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return data, "jpeg", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format (expected PNG or JPEG)")
	}
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
