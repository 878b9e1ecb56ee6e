package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"signet/internal/domain"
	"signet/internal/port"
)

type stamper struct{}

// NewStamper creates the pdfcpu-backed PDFStamper.
func NewStamper() port.PDFStamper {
	return &stamper{}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// classifyPDFError folds pdfcpu failures into the two error classes callers
// present differently: encrypted sources versus structurally invalid ones.
func classifyPDFError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return fmt.Errorf("%w: %v", domain.ErrEncryptedPDF, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrMalformedPDF, err)
}

func (s *stamper) PageCount(_ context.Context, pdfBytes []byte) (int, error) {
	pdfCtx, err := api.ReadContext(bytes.NewReader(pdfBytes), newConfiguration())
	if err != nil {
		return 0, classifyPDFError(err)
	}
	if pdfCtx.Encrypt != nil {
		return 0, domain.ErrEncryptedPDF
	}
	return pdfCtx.PageCount, nil
}

func (s *stamper) Embed(_ context.Context, input port.EmbedInput) ([]byte, error) {
	conf := newConfiguration()

	pdfCtx, err := api.ReadContext(bytes.NewReader(input.PDFBytes), conf)
	if err != nil {
		return nil, classifyPDFError(err)
	}
	if pdfCtx.Encrypt != nil {
		return nil, domain.ErrEncryptedPDF
	}

	dims, err := pdfCtx.PageDims()
	if err != nil {
		return nil, classifyPDFError(err)
	}
	pageCount := pdfCtx.PageCount

	marks, err := stampMap(input.Placeholders, input.Artifact, dims, pageCount)
	if err != nil {
		return nil, err
	}

	if input.StampIdentity {
		// Hidden per-page document-identity marker. Best effort.
		markerText := "signet:" + input.DocumentID.String()
		for page := 1; page <= pageCount; page++ {
			wm, err := api.TextWatermark(markerText,
				"font:Helvetica, points:4, pos:bc, off:0 2, rot:0, op:.01", true, false, types.POINTS)
			if err != nil {
				log.Printf("stamper.Embed: identity marker for document %s failed: %v", input.DocumentID, err)
				break
			}
			marks[page] = append(marks[page], wm)
		}
	}

	if len(marks) == 0 {
		return input.PDFBytes, nil
	}

	var buf bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(input.PDFBytes), &buf, marks, conf); err != nil {
		return nil, classifyPDFError(err)
	}
	return buf.Bytes(), nil
}

// stampMap builds one watermark per placeholder, grouped by target page.
// Several placeholders may land on the same page; slice order is draw order,
// so lower z draws first and is overdrawn by higher z.
func stampMap(placeholders []domain.Placeholder, artifact port.SignatureArtifact, dims []types.Dim, pageCount int) (map[int][]*model.Watermark, error) {
	ordered := make([]domain.Placeholder, len(placeholders))
	copy(ordered, placeholders)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ZIndex < ordered[j].ZIndex
	})

	marks := map[int][]*model.Watermark{}
	for _, p := range ordered {
		if p.Page < 1 || p.Page > pageCount {
			log.Printf("stamper.Embed: placeholder %s targets page %d of a %d-page document, skipping",
				p.ID, p.Page, pageCount)
			continue
		}
		wm, err := watermarkFor(p, artifact, dims[p.Page-1])
		if err != nil {
			return nil, err
		}
		if wm == nil {
			continue
		}
		marks[p.Page] = append(marks[p.Page], wm)
	}
	return marks, nil
}

// watermarkFor builds the stamp for one placeholder, or nil when the artifact
// has nothing to render for the field type.
func watermarkFor(p domain.Placeholder, artifact port.SignatureArtifact, dim types.Dim) (*model.Watermark, error) {
	switch p.FieldType {
	case domain.FieldSignature, domain.FieldStamp:
		if len(artifact.ImageBytes) > 0 {
			wm, err := api.ImageWatermarkForReader(bytes.NewReader(artifact.ImageBytes),
				imageStampDesc(p, dim), true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("%w: building image stamp: %v", domain.ErrMalformedPDF, err)
			}
			return wm, nil
		}
		return textWatermark(artifact.TypedText, p, dim)
	case domain.FieldInitial:
		return textWatermark(initialsOf(artifact.TypedText), p, dim)
	case domain.FieldDate:
		return textWatermark(artifact.SignedAt, p, dim)
	case domain.FieldCheckbox:
		return textWatermark("X", p, dim)
	default:
		return textWatermark(artifact.TypedText, p, dim)
	}
}

func textWatermark(text string, p domain.Placeholder, dim types.Dim) (*model.Watermark, error) {
	if text == "" {
		return nil, nil
	}
	wm, err := api.TextWatermark(text, textStampDesc(p, dim), true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: building text stamp: %v", domain.ErrMalformedPDF, err)
	}
	return wm, nil
}

// stampOffset converts a placeholder's normalized top-left coordinates into
// points from the page's bottom-left corner, anchored at the box's bottom-left.
func stampOffset(p domain.Placeholder, dim types.Dim) (float64, float64) {
	offX := p.X * dim.Width
	offY := dim.Height - (p.Y+p.Height)*dim.Height
	return offX, offY
}

// imageStampDesc renders the pdfcpu watermark description for an image
// artifact: positioned at the placeholder box, scaled to its width relative
// to the page.
func imageStampDesc(p domain.Placeholder, dim types.Dim) string {
	offX, offY := stampOffset(p, dim)
	scale := p.Width
	if scale <= 0 || scale > 1 {
		scale = 0.2
	}
	return fmt.Sprintf("pos:bl, off:%.2f %.2f, sc:%.4f rel, rot:0, op:1", offX, offY, scale)
}

// textStampDesc renders the description for a text artifact, sizing the font
// to the placeholder box height.
func textStampDesc(p domain.Placeholder, dim types.Dim) string {
	offX, offY := stampOffset(p, dim)
	points := int(p.Height * dim.Height * 0.6)
	if points < 6 {
		points = 6
	}
	if points > 48 {
		points = 48
	}
	return fmt.Sprintf("font:Helvetica, points:%d, pos:bl, off:%.2f %.2f, rot:0, op:1", points, offX, offY)
}

// initialsOf reduces a full name to its initials ("Ada Lovelace" -> "AL").
func initialsOf(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r := []rune(part)
		if len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return strings.ToUpper(b.String())
}
