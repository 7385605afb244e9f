package overlay

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// operation is one content stream operator with its operands, already in
// their serialized form.
type operation struct {
	Operator string
	Operands []string
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func name(s string) string {
	return "/" + s
}

// literal renders s as a PDF literal string. s must already be in the font
// encoding.
func literal(s string) string {
	esc, _ := types.Escape(s)
	return "(" + *esc + ")"
}

// winAnsi maps text to single-byte codes. Runes outside Latin-1 become
// spaces; replaced counts them.
func winAnsi(text string) (encoded string, replaced int) {
	var b strings.Builder
	for _, r := range text {
		if r > 0xff {
			r = ' '
			replaced++
		}
		b.WriteByte(byte(r))
	}
	return b.String(), replaced
}

func encodeOps(ops []operation) []byte {
	var buf bytes.Buffer
	for i, op := range ops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, o := range op.Operands {
			buf.WriteString(o)
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
	}
	return buf.Bytes()
}
