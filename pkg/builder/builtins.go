package builder

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

const maxPrintfArgs = 20

// anyArray accepts an argument of any array type.
const anyArray = syntax.TypeUndefined

type signature struct {
	ret    syntax.TypeID
	params []syntax.TypeID
}

func (b *Builder) builtinSignatures() map[ast.Builtin]signature {
	var (
		f   = syntax.TypeFloat
		i   = syntax.TypeInt
		v   = syntax.TypeVoid
		str = b.stringType
	)
	return map[ast.Builtin]signature{
		ast.BuiltinSqrt:    {f, []syntax.TypeID{f}},
		ast.BuiltinExp:     {f, []syntax.TypeID{f}},
		ast.BuiltinSin:     {f, []syntax.TypeID{f}},
		ast.BuiltinCos:     {f, []syntax.TypeID{f}},
		ast.BuiltinLog:     {f, []syntax.TypeID{f}},
		ast.BuiltinLog10:   {f, []syntax.TypeID{f}},
		ast.BuiltinAsin:    {f, []syntax.TypeID{f}},
		ast.BuiltinRand:    {f, nil},
		ast.BuiltinRound:   {i, []syntax.TypeID{f}},
		ast.BuiltinStrcpy:  {v, []syntax.TypeID{str, str}},
		ast.BuiltinStrncpy: {v, []syntax.TypeID{str, str, i}},
		ast.BuiltinStrcat:  {v, []syntax.TypeID{str, str}},
		ast.BuiltinStrncat: {v, []syntax.TypeID{str, str, i}},
		ast.BuiltinStrcmp:  {i, []syntax.TypeID{str, str}},
		ast.BuiltinStrncmp: {i, []syntax.TypeID{str, str, i}},
		ast.BuiltinStrstr:  {i, []syntax.TypeID{str, str}},
		ast.BuiltinStrlen:  {i, []syntax.TypeID{str}},
		ast.BuiltinAssert:  {v, []syntax.TypeID{i, str}},
		ast.BuiltinUpb:     {i, []syntax.TypeID{i, anyArray}},
	}
}

// BuildBuiltin checks a call of a library function. abs becomes a unary
// operation; the printing functions have their own rules.
func (b *Builder) BuildBuiltin(bi ast.Builtin, args []tree.Node, loc token.Location) tree.Node {
	if broken(args...) {
		return tree.Node{}
	}
	switch bi {
	case ast.BuiltinPrintf:
		return b.buildPrintf(args, loc)
	case ast.BuiltinPrint:
		return b.buildPrint(args, loc)
	case ast.BuiltinPrintid, ast.BuiltinGetid:
		return b.buildIdentList(bi, args, loc)
	case ast.BuiltinAbs:
		if len(args) != 1 {
			return b.error(loc, util.Count{C: util.ErrWrongArgCount, Expected: 1, Got: len(args)})
		}
		return b.BuildUnary(ast.OpAbs, args[0], loc)
	}

	sig := b.signatures[bi]
	if len(sig.params) != len(args) {
		return b.error(loc, util.Count{C: util.ErrWrongArgCount, Expected: len(sig.params), Got: len(args)})
	}
	for i, p := range sig.params {
		if p == anyArray {
			if t := ast.Type(args[i]); !b.sx.IsArray(t) {
				return b.error(ast.Location(args[i]), util.Mismatch{Expected: "array", Got: b.sx.TypeString(t)})
			}
			continue
		}
		arg, d := b.convert(p, args[i])
		if d != nil {
			return b.error(ast.Location(args[i]), d)
		}
		args[i] = arg
	}
	return b.expr(ast.KindBuiltin, sig.ret, ast.RValue, loc, []tree.Item{tree.Item(bi)}, args...)
}

type conversion struct {
	spec rune
	typ  syntax.TypeID
}

// conversions parses a printf format into the types its arguments must have.
func (b *Builder) conversions(format string) ([]conversion, util.Diagnostic) {
	var out []conversion
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}
		i++
		if i == len(runes) {
			return nil, util.Expected{What: "conversion specifier"}
		}
		spec := runes[i]
		var typ syntax.TypeID
		switch spec {
		case '%':
			continue
		case 'i', 'd', 'c', 'ц', 'л':
			typ = syntax.TypeInt
		case 'f', 'в':
			typ = syntax.TypeFloat
		case 's', 'с':
			typ = b.stringType
		default:
			return nil, util.Char{C: util.ErrPrintfSpec, Char: spec}
		}
		if len(out) == maxPrintfArgs {
			return nil, util.Plain{C: util.ErrPrintfTooManyArgs}
		}
		out = append(out, conversion{spec, typ})
	}
	return out, nil
}

func (b *Builder) buildPrintf(args []tree.Node, loc token.Location) tree.Node {
	if len(args) == 0 || ast.KindOf(args[0]) != ast.KindString {
		return b.error(loc, util.Plain{C: util.ErrPrintfFormat})
	}
	if len(args)-1 > maxPrintfArgs {
		return b.error(loc, util.Plain{C: util.ErrPrintfTooManyArgs})
	}
	format := args[0]
	convs, d := b.conversions(b.sx.String(ast.StringIndex(format)))
	if d != nil {
		return b.error(ast.Location(format), d)
	}
	if len(convs) != len(args)-1 {
		return b.error(loc, util.Count{C: util.ErrPrintfArgCount, Expected: len(convs), Got: len(args) - 1})
	}
	for i, c := range convs {
		arg, d := b.convert(c.typ, args[i+1])
		if d != nil {
			return b.error(ast.Location(args[i+1]), util.Char{C: util.ErrPrintfArgType, Char: c.spec})
		}
		args[i+1] = arg
	}
	return b.expr(ast.KindBuiltin, syntax.TypeVoid, ast.RValue, loc, []tree.Item{tree.Item(ast.BuiltinPrintf)}, args...)
}

func (b *Builder) buildPrint(args []tree.Node, loc token.Location) tree.Node {
	if len(args) == 0 {
		return b.error(loc, util.Expected{What: "expression"})
	}
	for _, arg := range args {
		if b.sx.IsPointer(ast.Type(arg)) {
			return b.error(ast.Location(arg), util.Plain{C: util.ErrPrintPointer})
		}
	}
	return b.expr(ast.KindBuiltin, syntax.TypeVoid, ast.RValue, loc, []tree.Item{tree.Item(ast.BuiltinPrint)}, args...)
}

func (b *Builder) buildIdentList(bi ast.Builtin, args []tree.Node, loc token.Location) tree.Node {
	if len(args) == 0 {
		return b.error(loc, util.Plain{C: util.ErrIdentArgExpected})
	}
	for _, arg := range args {
		if ast.KindOf(arg) != ast.KindIdentifier || !ast.IsLValue(arg) {
			return b.error(ast.Location(arg), util.Plain{C: util.ErrIdentArgExpected})
		}
	}
	return b.expr(ast.KindBuiltin, syntax.TypeVoid, ast.RValue, loc, []tree.Item{tree.Item(bi)}, args...)
}
