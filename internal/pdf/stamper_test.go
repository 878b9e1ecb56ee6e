package pdf

import (
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"

	"signet/internal/domain"
	"signet/internal/port"
)

// US Letter in points.
var letter = types.Dim{Width: 612, Height: 792}

func TestStampOffset(t *testing.T) {
	p := domain.Placeholder{X: 0.5, Y: 0.5, Width: 0.2, Height: 0.1}
	offX, offY := stampOffset(p, letter)

	assert.InDelta(t, 306.0, offX, 0.001)
	// Top-left normalized coordinates flip to points from the bottom edge,
	// anchored at the box's bottom-left corner.
	assert.InDelta(t, 792-(0.5+0.1)*792, offY, 0.001)

	// A box at the page origin lands at the top-left corner.
	origin := domain.Placeholder{X: 0, Y: 0, Width: 0.2, Height: 0.1}
	offX, offY = stampOffset(origin, letter)
	assert.InDelta(t, 0.0, offX, 0.001)
	assert.InDelta(t, 792-0.1*792, offY, 0.001)
}

func TestImageStampDesc_ScaleFallback(t *testing.T) {
	valid := domain.Placeholder{X: 0.1, Y: 0.8, Width: 0.25, Height: 0.06}
	assert.Contains(t, imageStampDesc(valid, letter), "sc:0.2500 rel")

	zeroWidth := domain.Placeholder{X: 0.1, Y: 0.8, Width: 0, Height: 0.06}
	assert.Contains(t, imageStampDesc(zeroWidth, letter), "sc:0.2000 rel")

	tooWide := domain.Placeholder{X: 0.1, Y: 0.8, Width: 1.5, Height: 0.06}
	assert.Contains(t, imageStampDesc(tooWide, letter), "sc:0.2000 rel")
}

func TestTextStampDesc_FontSizeClamps(t *testing.T) {
	tiny := domain.Placeholder{X: 0.1, Y: 0.8, Width: 0.2, Height: 0.001}
	assert.Contains(t, textStampDesc(tiny, letter), "points:6,")

	huge := domain.Placeholder{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.9}
	assert.Contains(t, textStampDesc(huge, letter), "points:48,")

	// Height 0.06 of 792pt is 47.52pt, 60% of that is 28pt.
	mid := domain.Placeholder{X: 0.1, Y: 0.8, Width: 0.2, Height: 0.06}
	assert.Contains(t, textStampDesc(mid, letter), "points:28,")
}

func TestStampMap_SeveralMarksPerPage(t *testing.T) {
	dims := []types.Dim{letter, letter}
	artifact := port.SignatureArtifact{TypedText: "Ada Lovelace", SignedAt: "2026-09-01"}
	placeholders := []domain.Placeholder{
		{Page: 1, FieldType: domain.FieldDate, ZIndex: 1, Width: 0.2, Height: 0.04},
		{Page: 1, FieldType: domain.FieldSignature, ZIndex: 0, Width: 0.25, Height: 0.06},
		{Page: 2, FieldType: domain.FieldInitial, Width: 0.1, Height: 0.03},
		{Page: 9, FieldType: domain.FieldSignature, Width: 0.25, Height: 0.06},
	}

	marks, err := stampMap(placeholders, artifact, dims, 2)
	assert.NoError(t, err)

	// Both page-1 placeholders keep their own mark; neither may displace the
	// other. The out-of-range page is skipped.
	assert.Len(t, marks[1], 2)
	assert.Len(t, marks[2], 1)
	assert.NotContains(t, marks, 9)

	// Draw order on the shared page follows z: signature (z 0) first, the
	// date stamp (z 1) on top.
	assert.Equal(t, "Ada Lovelace", marks[1][0].TextString)
	assert.Equal(t, "2026-09-01", marks[1][1].TextString)
	assert.Equal(t, "AL", marks[2][0].TextString)
}

func TestStampMap_EmptyArtifactProducesNoMarks(t *testing.T) {
	dims := []types.Dim{letter}
	placeholders := []domain.Placeholder{
		{Page: 1, FieldType: domain.FieldSignature, Width: 0.25, Height: 0.06},
	}

	marks, err := stampMap(placeholders, port.SignatureArtifact{}, dims, 1)
	assert.NoError(t, err)
	assert.Empty(t, marks)
}

func TestInitialsOf(t *testing.T) {
	assert.Equal(t, "AL", initialsOf("Ada Lovelace"))
	assert.Equal(t, "JRH", initialsOf("james r. hoffman"))
	assert.Equal(t, "A", initialsOf("Ada"))
	assert.Equal(t, "", initialsOf(""))
	assert.Equal(t, "", initialsOf("   "))
}

func TestClassifyPDFError(t *testing.T) {
	assert.ErrorIs(t, classifyPDFError(errors.New("pdfcpu: this file is encrypted")), domain.ErrEncryptedPDF)
	assert.ErrorIs(t, classifyPDFError(errors.New("missing user Password")), domain.ErrEncryptedPDF)
	assert.ErrorIs(t, classifyPDFError(errors.New("xref table corrupt")), domain.ErrMalformedPDF)
}
