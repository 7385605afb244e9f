// Package overlay draws watermark pages and stamps them onto documents.
package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdftools/security"
)

// Config describes the watermark page.
type Config struct {
	// PaperSize of the overlay page, e.g. "Letter" or "A4".
	PaperSize string

	// The diagonal label.
	Font     string
	FontSize int
	Opacity  float64
	Angle    float64 // degrees

	// The corner label, drawn at LabelX, LabelY.
	LabelFont     string
	LabelFontSize int
	LabelOpacity  float64
	LabelX        float64
	LabelY        float64

	// Gray level of both labels, 0 is black and 1 is white.
	Gray float64
}

// DefaultConfig draws a 48pt Helvetica-Bold diagonal label at 20% opacity
// and a 12pt Helvetica corner label at 30% opacity on a US Letter page.
func DefaultConfig() Config {
	return Config{
		PaperSize:     "Letter",
		Font:          "Helvetica-Bold",
		FontSize:      48,
		Opacity:       0.2,
		Angle:         45,
		LabelFont:     "Helvetica",
		LabelFontSize: 12,
		LabelOpacity:  0.3,
		LabelX:        50,
		LabelY:        50,
		Gray:          0.5,
	}
}

// Available reports whether the configured fonts can be rendered. Only the
// standard Type 1 fonts are embedded by reference, so anything else
// disables rendering.
func (c Config) Available() bool {
	return font.IsCoreFont(c.Font) && font.IsCoreFont(c.LabelFont)
}

func (c Config) Validate() error {
	if !c.Available() {
		return fmt.Errorf("unsupported watermark fonts %q, %q", c.Font, c.LabelFont)
	}
	if _, ok := types.PaperSize[c.PaperSize]; !ok {
		return fmt.Errorf("unknown paper size %q", c.PaperSize)
	}
	if c.FontSize <= 0 || c.LabelFontSize <= 0 {
		return errors.New("font sizes must be positive")
	}
	for _, o := range []float64{c.Opacity, c.LabelOpacity, c.Gray} {
		if o < 0 || o > 1 {
			return fmt.Errorf("opacity and gray must be within [0,1]: %g", o)
		}
	}
	return nil
}

// ErrUnencodable is returned for watermark text that has no character the
// standard fonts can show.
var ErrUnencodable = errors.New("watermark text cannot be encoded for the standard fonts")

// Replaced reports how many runes of text the standard fonts cannot show.
// They are drawn as spaces.
func Replaced(text string) int {
	_, n := winAnsi(strings.ToUpper(text))
	return n
}

// Renderer builds overlay pages and composites them onto documents.
type Renderer struct {
	cfg Config
}

func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Page renders a one-page document carrying text upper-cased along the
// diagonal and "© text" in the corner.
func (r *Renderer) Page(text string) ([]byte, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty watermark text")
	}
	if main, _ := winAnsi(strings.ToUpper(text)); strings.TrimSpace(main) == "" {
		return nil, ErrUnencodable
	}

	xRefTable, err := pdfcpu.CreateXRefTableWithRootDict()
	if err != nil {
		return nil, err
	}
	rootDict, err := xRefTable.Catalog()
	if err != nil {
		return nil, err
	}

	mediaBox := types.RectForFormat(r.cfg.PaperSize)
	fm := model.FontMap{}
	mainID := fm.EnsureKey(r.cfg.Font)
	labelID := fm.EnsureKey(r.cfg.LabelFont)
	fontRes, err := pdffont.FontResources(xRefTable, fm)
	if err != nil {
		return nil, fmt.Errorf("font resources: %w", err)
	}

	resDict := types.Dict{
		"Font": fontRes,
		"ExtGState": types.Dict{
			"GS0": extGState(r.cfg.Opacity),
			"GS1": extGState(r.cfg.LabelOpacity),
		},
	}

	content := encodeOps(r.operations(text, mediaBox, mainID, labelID))
	sd, err := xRefTable.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	contentRef, err := xRefTable.IndRefForNewObject(*sd)
	if err != nil {
		return nil, err
	}

	pagesDict := types.Dict{
		"Type":     types.Name("Pages"),
		"Count":    types.Integer(1),
		"MediaBox": mediaBox.Array(),
	}
	pagesRef, err := xRefTable.IndRefForNewObject(pagesDict)
	if err != nil {
		return nil, err
	}
	pageDict := types.Dict{
		"Type":      types.Name("Page"),
		"Parent":    *pagesRef,
		"Resources": resDict,
		"Contents":  *contentRef,
	}
	pageRef, err := xRefTable.IndRefForNewObject(pageDict)
	if err != nil {
		return nil, err
	}
	pagesDict.Insert("Kids", types.Array{*pageRef})
	rootDict.Insert("Pages", *pagesRef)

	ctx := pdfcpu.CreateContext(xRefTable, security.NewConfiguration(""))
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) operations(text string, mediaBox *types.Rectangle, mainID, labelID string) []operation {
	main, _ := winAnsi(strings.ToUpper(text))
	label, _ := winAnsi("© " + text)
	width := font.TextWidth(main, r.cfg.Font, r.cfg.FontSize)
	rad := r.cfg.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx := mediaBox.LL.X + mediaBox.Width()/2
	cy := mediaBox.LL.Y + mediaBox.Height()/2
	gray := num(r.cfg.Gray)

	return []operation{
		{Operator: "q"},
		{Operator: "gs", Operands: []string{name("GS0")}},
		{Operator: "g", Operands: []string{gray}},
		{Operator: "BT"},
		{Operator: "Tf", Operands: []string{name(mainID), num(float64(r.cfg.FontSize))}},
		{Operator: "Tm", Operands: []string{num(cos), num(sin), num(-sin), num(cos), num(cx), num(cy)}},
		{Operator: "Td", Operands: []string{num(-width / 2), "0"}},
		{Operator: "Tj", Operands: []string{literal(main)}},
		{Operator: "ET"},
		{Operator: "Q"},

		{Operator: "q"},
		{Operator: "gs", Operands: []string{name("GS1")}},
		{Operator: "g", Operands: []string{gray}},
		{Operator: "BT"},
		{Operator: "Tf", Operands: []string{name(labelID), num(float64(r.cfg.LabelFontSize))}},
		{Operator: "Td", Operands: []string{num(r.cfg.LabelX), num(r.cfg.LabelY)}},
		{Operator: "Tj", Operands: []string{literal(label)}},
		{Operator: "ET"},
		{Operator: "Q"},
	}
}

func extGState(alpha float64) types.Dict {
	return types.Dict{
		"Type": types.Name("ExtGState"),
		"ca":   types.Float(alpha),
		"CA":   types.Float(alpha),
	}
}

// Stamp composites the watermark page for text onto every page of src and
// writes the result to w. The overlay is scaled to each page's width.
func (r *Renderer) Stamp(src io.ReadSeeker, w io.Writer, text string) error {
	page, err := r.Page(text)
	if err != nil {
		return err
	}
	wm, err := api.PDFWatermarkForReadSeeker(bytes.NewReader(page), 1, "scalefactor:1 rel, rotation:0", true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("watermark setup: %w", err)
	}
	if err := api.AddWatermarks(src, w, nil, wm, security.NewConfiguration("")); err != nil {
		return fmt.Errorf("apply watermark: %w", err)
	}
	return nil
}
