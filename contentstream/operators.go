package contentstream

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmdunggh/pdftotext-sub000/coords"
	"github.com/pmdunggh/pdftotext-sub000/recovery"
	"github.com/pmdunggh/pdftotext-sub000/scanner"
)

// exec runs one operator against the operand stack. Unknown operators
// fall through silently; the caller clears the stack either way.
func (in *interp) exec(ctx context.Context, template, op string, stack []operand) {
	switch op {
	case "BT":
		in.tm = coords.Identity()
	case "ET":
		// text object ends, matrices keep their values

	case "q":
		in.stack = append(in.stack, graphicsState{ctm: in.ctm, tm: in.tm})
	case "Q":
		if n := len(in.stack); n > 0 {
			gs := in.stack[n-1]
			in.stack = in.stack[:n-1]
			in.ctm, in.tm = gs.ctm, gs.tm
		}
	case "cm":
		if m, ok := matrixOperands(stack); ok {
			in.ctm = coords.ComposeNormalized(in.ctm, m)
		}

	case "Tf":
		in.opTf(ctx, template, stack)
	case "Tm":
		if m, ok := matrixOperands(stack); ok {
			in.tm = m
		}
	case "Td":
		if tx, ty, ok := pairOperands(stack); ok {
			in.translateLine(tx, ty)
		}
	case "TD":
		if tx, ty, ok := pairOperands(stack); ok {
			in.leading = -ty
			in.translateLine(tx, ty)
		}
	case "T*":
		in.translateLine(0, -in.leading)

	case "Tj":
		if len(stack) >= 1 && stack[len(stack)-1].tok.Type == scanner.TokenString {
			in.show(in.decode(stack[len(stack)-1].tok.Bytes))
		}
	case "'":
		if len(stack) >= 1 && stack[len(stack)-1].tok.Type == scanner.TokenString {
			in.translateLine(0, -in.leading)
			in.show(in.decode(stack[len(stack)-1].tok.Bytes))
		}
	case `"`:
		// aw ac string: the spacing operands are not modeled
		if len(stack) >= 1 && stack[len(stack)-1].tok.Type == scanner.TokenString {
			in.translateLine(0, -in.leading)
			in.show(in.decode(stack[len(stack)-1].tok.Bytes))
		}
	case "TJ":
		in.opTJ(stack)

	case "Do":
		// forms were inlined before interpretation, so this is an
		// image or an unresolvable XObject: no text, but it splits
		// the raw-mode line
		if n := len(in.frags); n > 0 {
			in.frags[n-1].LineBreak = true
		}
	}
}

func (in *interp) opTf(ctx context.Context, template string, stack []operand) {
	if len(stack) < 2 {
		return
	}
	nameOp, sizeOp := stack[len(stack)-2], stack[len(stack)-1]
	if nameOp.tok.Type != scanner.TokenName || sizeOp.tok.Type != scanner.TokenNumber {
		return
	}
	in.fontAlias = nameOp.tok.Str
	in.fontSize = sizeOp.tok.Number()
	in.font = nil

	id, ok := in.page.Resources.Font(template, in.fontAlias)
	if !ok {
		in.warn(ctx, fmt.Errorf("font alias /%s unresolved", in.fontAlias))
		return
	}
	f, err := in.res.ResolveFont(ctx, id)
	if err != nil {
		in.warn(ctx, fmt.Errorf("font /%s: %w", in.fontAlias, err))
		return
	}
	in.font = f
}

func (in *interp) opTJ(stack []operand) {
	if len(stack) < 1 {
		return
	}
	arr := stack[len(stack)-1]
	if arr.tok.Type != scanner.TokenArrayOpen {
		return
	}
	var text strings.Builder
	for _, item := range arr.items {
		switch item.Type {
		case scanner.TokenString:
			text.WriteString(in.decode(item.Bytes))
		case scanner.TokenNumber:
			// a large negative offset is a disguised space
			if v := item.Number(); v < -in.cfg.KernThreshold || v > in.cfg.KernThreshold {
				text.WriteByte(' ')
			}
		}
	}
	in.show(text.String())
}

func (in *interp) decode(raw []byte) string {
	if in.font == nil {
		return ""
	}
	return in.font.Decode(raw)
}

// show emits one fragment at the current composed position.
func (in *interp) show(text string) {
	if text == "" || in.font == nil {
		return
	}
	placed := coords.ComposeNormalized(in.ctm, in.tm)
	in.frags = append(in.frags, TextFragment{
		Page:      in.page.Number,
		X:         placed[4],
		Y:         placed[5],
		H:         in.fontSize,
		FontAlias: in.fontAlias,
		Font:      in.font,
		Text:      text,
	})
}

// translateLine moves the text matrix by (tx, ty) in text space, plain
// arithmetic against the current basis. Line moves never go through
// the sign normalization that placement does.
func (in *interp) translateLine(tx, ty float64) {
	in.tm = coords.Translate(tx, ty).Multiply(in.tm)
}

func matrixOperands(stack []operand) (coords.Matrix, bool) {
	if len(stack) < 6 {
		return coords.Matrix{}, false
	}
	var m coords.Matrix
	for i := 0; i < 6; i++ {
		op := stack[len(stack)-6+i]
		if op.tok.Type != scanner.TokenNumber {
			return coords.Matrix{}, false
		}
		m[i] = op.tok.Number()
	}
	return m, true
}

func pairOperands(stack []operand) (float64, float64, bool) {
	if len(stack) < 2 {
		return 0, 0, false
	}
	a, b := stack[len(stack)-2], stack[len(stack)-1]
	if a.tok.Type != scanner.TokenNumber || b.tok.Type != scanner.TokenNumber {
		return 0, 0, false
	}
	return a.tok.Number(), b.tok.Number(), true
}

func (in *interp) warn(ctx context.Context, err error) {
	in.cfg.Recovery.OnError(ctx, err, recovery.Location{Component: "contentstream"})
}
