// Package optimize holds HIR rewrites that run between SSA construction
// and type inference.
package optimize

import (
	"context"
	"fmt"
	"math"

	"forget/internal/hir"
	"forget/internal/trace"
)

// ConstantPropagation folds primitive constants through copies, phis and
// unary and binary expressions. f must be in SSA form. Instructions whose
// value becomes known are rewritten to Primitive in place; it returns the
// number of rewritten instructions.
func ConstantPropagation(ctx context.Context, f *hir.Function) int {
	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "constant_propagation", trace.CurrentSpan(ctx))
	consts := make(map[*hir.Identifier]hir.PrimitiveValue)
	folded := 0
	// loop phis only become constant once their back-edge operands are known
	for changed := true; changed; {
		changed = false
		for _, blk := range f.Body.Ordered() {
			for _, phi := range blk.Phis {
				if _, known := consts[phi.Place.Identifier]; known {
					continue
				}
				if v, ok := phiConstant(phi, consts); ok {
					consts[phi.Place.Identifier] = v
					changed = true
				}
			}
			for _, instr := range blk.Instructions {
				if instr.Lvalue == nil || instr.Lvalue.HasPath() {
					continue
				}
				if _, known := consts[instr.Lvalue.Identifier]; known {
					continue
				}
				v, ok := evaluate(&instr.Value, consts)
				if !ok {
					continue
				}
				consts[instr.Lvalue.Identifier] = v
				changed = true
				if instr.Value.Kind != hir.ValuePrimitive {
					instr.Value = hir.InstrValue{Kind: hir.ValuePrimitive, Primitive: v}
					folded++
				}
			}
		}
	}
	sp.End(fmt.Sprintf("folded=%d", folded))
	return folded
}

func phiConstant(phi *hir.Phi, consts map[*hir.Identifier]hir.PrimitiveValue) (hir.PrimitiveValue, bool) {
	var (
		first hir.PrimitiveValue
		seen  bool
	)
	for _, pred := range phi.SortedOperands() {
		v, ok := consts[phi.Operands[pred]]
		if !ok {
			return hir.PrimitiveValue{}, false
		}
		if seen && !sameValue(first, v) {
			return hir.PrimitiveValue{}, false
		}
		first, seen = v, true
	}
	return first, seen
}

func constOf(p hir.Place, consts map[*hir.Identifier]hir.PrimitiveValue) (hir.PrimitiveValue, bool) {
	if p.HasPath() {
		return hir.PrimitiveValue{}, false
	}
	v, ok := consts[p.Identifier]
	return v, ok
}

func evaluate(v *hir.InstrValue, consts map[*hir.Identifier]hir.PrimitiveValue) (hir.PrimitiveValue, bool) {
	switch v.Kind {
	case hir.ValuePrimitive:
		return v.Primitive, true
	case hir.ValuePlace:
		return constOf(v.Place, consts)
	case hir.ValueUnary:
		operand, ok := constOf(v.Unary.Operand, consts)
		if !ok {
			return hir.PrimitiveValue{}, false
		}
		return foldUnary(v.Unary.Op, operand)
	case hir.ValueBinary:
		left, ok := constOf(v.Binary.Left, consts)
		if !ok {
			return hir.PrimitiveValue{}, false
		}
		right, ok := constOf(v.Binary.Right, consts)
		if !ok {
			return hir.PrimitiveValue{}, false
		}
		return foldBinary(v.Binary.Op, left, right)
	}
	return hir.PrimitiveValue{}, false
}

func number(n float64) hir.PrimitiveValue {
	return hir.PrimitiveValue{Kind: hir.PrimNumber, Num: n}
}

func boolean(b bool) hir.PrimitiveValue {
	return hir.PrimitiveValue{Kind: hir.PrimBoolean, Bool: b}
}

func foldUnary(op string, v hir.PrimitiveValue) (hir.PrimitiveValue, bool) {
	switch op {
	case "!":
		return boolean(!truthy(v)), true
	case "-":
		if v.Kind == hir.PrimNumber {
			return number(-v.Num), true
		}
	case "+":
		if v.Kind == hir.PrimNumber {
			return v, true
		}
	case "~":
		if v.Kind == hir.PrimNumber {
			return number(float64(^toInt32(v.Num))), true
		}
	}
	return hir.PrimitiveValue{}, false
}

func foldBinary(op string, l, r hir.PrimitiveValue) (hir.PrimitiveValue, bool) {
	switch op {
	case "===":
		return boolean(strictEquals(l, r)), true
	case "!==":
		return boolean(!strictEquals(l, r)), true
	}
	if l.Kind == hir.PrimString && r.Kind == hir.PrimString {
		switch op {
		case "+":
			return hir.PrimitiveValue{Kind: hir.PrimString, Str: l.Str + r.Str}, true
		case "<":
			return boolean(l.Str < r.Str), true
		case "<=":
			return boolean(l.Str <= r.Str), true
		case ">":
			return boolean(l.Str > r.Str), true
		case ">=":
			return boolean(l.Str >= r.Str), true
		case "==":
			return boolean(l.Str == r.Str), true
		case "!=":
			return boolean(l.Str != r.Str), true
		}
		return hir.PrimitiveValue{}, false
	}
	if l.Kind != hir.PrimNumber || r.Kind != hir.PrimNumber {
		return hir.PrimitiveValue{}, false
	}
	a, b := l.Num, r.Num
	switch op {
	case "+":
		return number(a + b), true
	case "-":
		return number(a - b), true
	case "*":
		return number(a * b), true
	case "/":
		return number(a / b), true
	case "%":
		return number(math.Mod(a, b)), true
	case "**":
		return number(math.Pow(a, b)), true
	case "<":
		return boolean(a < b), true
	case "<=":
		return boolean(a <= b), true
	case ">":
		return boolean(a > b), true
	case ">=":
		return boolean(a >= b), true
	case "==":
		return boolean(a == b), true
	case "!=":
		return boolean(a != b), true
	case "&":
		return number(float64(toInt32(a) & toInt32(b))), true
	case "|":
		return number(float64(toInt32(a) | toInt32(b))), true
	case "^":
		return number(float64(toInt32(a) ^ toInt32(b))), true
	case "<<":
		return number(float64(toInt32(a) << (toUint32(b) & 31))), true
	case ">>":
		return number(float64(toInt32(a) >> (toUint32(b) & 31))), true
	case ">>>":
		return number(float64(toUint32(a) >> (toUint32(b) & 31))), true
	}
	return hir.PrimitiveValue{}, false
}

func truthy(v hir.PrimitiveValue) bool {
	switch v.Kind {
	case hir.PrimBoolean:
		return v.Bool
	case hir.PrimNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case hir.PrimString:
		return v.Str != ""
	default:
		return false
	}
}

func strictEquals(l, r hir.PrimitiveValue) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case hir.PrimBoolean:
		return l.Bool == r.Bool
	case hir.PrimNumber:
		return l.Num == r.Num
	case hir.PrimString:
		return l.Str == r.Str
	default:
		return true
	}
}

// sameValue is strict equality except that NaN equals NaN, so phis
// merging the same NaN literal stay constant.
func sameValue(l, r hir.PrimitiveValue) bool {
	if l.Kind == hir.PrimNumber && r.Kind == hir.PrimNumber && math.IsNaN(l.Num) && math.IsNaN(r.Num) {
		return true
	}
	return strictEquals(l, r)
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

func toInt32(n float64) int32 {
	return int32(toUint32(n)) // #nosec G115 -- two's complement wrap is the intended conversion
}
