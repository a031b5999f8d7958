// Package builder performs the semantic checks of the language and creates
// typed tree nodes. Every constructor takes operands that were already built
// and either returns the new node or reports one diagnostic and returns a
// broken node. Broken operands are passed through without a second report.
//
// Operands are created as children of the tree root and moved under their
// parent when it is built.
package builder

import (
	"errors"
	"strings"

	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

type label struct {
	ident   syntax.IdentID
	name    string
	defined bool
	use     token.Location
}

type Builder struct {
	sx   *syntax.Syntax
	cfg  *config.Config
	r    *util.Reporter
	root tree.Node

	stringType syntax.TypeID
	signatures map[ast.Builtin]signature
	funcLocs   map[syntax.IdentID]token.Location

	fn         syntax.IdentID
	ret        syntax.TypeID
	labels     []*label
	labelIndex map[syntax.ReprID]*label
	loops      int
	switches   int
}

// New registers the builtins in the outermost scope of sx and opens the
// scope of the translation unit.
func New(sx *syntax.Syntax, cfg *config.Config) *Builder {
	b := &Builder{
		sx:         sx,
		cfg:        cfg,
		r:          sx.Reporter,
		root:       sx.Tree.Root(),
		stringType: sx.Array(syntax.TypeChar),
		funcLocs:   make(map[syntax.IdentID]token.Location),
	}
	b.signatures = b.builtinSignatures()

	for _, bi := range ast.Builtins() {
		for _, name := range ast.BuiltinNames[bi] {
			for _, spelling := range []string{name, strings.ToUpper(name)} {
				r := sx.Intern(spelling)
				if sx.Lookup(r) != 0 {
					continue
				}
				if id, err := sx.AddIdent(r, syntax.IdentBuiltin, syntax.TypeUndefined); err == nil {
					sx.SetIdentDispl(id, tree.Item(bi))
				}
			}
		}
	}
	sx.EnterBlock()
	return b
}

func (b *Builder) Syntax() *syntax.Syntax { return b.sx }

func (b *Builder) error(loc token.Location, d util.Diagnostic) tree.Node {
	b.r.Error(loc, d)
	return tree.Node{}
}

func broken(nodes ...tree.Node) bool {
	for _, n := range nodes {
		if n.IsBroken() {
			return true
		}
	}
	return false
}

// node creates a node of the given kind under the root and moves children
// under it. Broken children are skipped.
func (b *Builder) node(kind ast.Kind, loc token.Location, args []tree.Item, children ...tree.Node) tree.Node {
	n := ast.Add(b.root, kind, loc, args...)
	for _, c := range children {
		if !c.IsBroken() {
			tree.Adopt(n, c)
		}
	}
	return n
}

func (b *Builder) expr(kind ast.Kind, typ syntax.TypeID, cat ast.Category, loc token.Location, args []tree.Item, operands ...tree.Node) tree.Node {
	return b.node(kind, loc, append([]tree.Item{tree.Item(typ), cat}, args...), operands...)
}

func (b *Builder) literal(typ syntax.TypeID, value tree.Item, loc token.Location) tree.Node {
	return b.expr(ast.KindLiteral, typ, ast.RValue, loc, []tree.Item{value})
}

// cast converts an integer expression to floating. Literals are converted
// in place.
func (b *Builder) cast(to syntax.TypeID, n tree.Node) tree.Node {
	from := ast.Type(n)
	if ast.KindOf(n) == ast.KindLiteral {
		n.SetArg(2, ast.FloatBits(float64(ast.LiteralInt(n))))
		ast.SetType(n, to)
		return n
	}
	loc := ast.Location(n)
	c := n.Insert(tree.Item(ast.KindCast), 5)
	c.SetArg(0, tree.Item(to))
	c.SetArg(1, ast.RValue)
	c.SetArg(2, tree.Item(from))
	ast.SetLocation(c, loc)
	return c
}

// usual applies the usual arithmetic conversions to both operands and
// returns their common type.
func (b *Builder) usual(l, r *tree.Node) syntax.TypeID {
	lf, rf := b.sx.IsFloating(ast.Type(*l)), b.sx.IsFloating(ast.Type(*r))
	switch {
	case lf && !rf:
		*r = b.cast(syntax.TypeFloat, *r)
	case rf && !lf:
		*l = b.cast(syntax.TypeFloat, *l)
	case !lf && !rf:
		return syntax.TypeInt
	}
	return syntax.TypeFloat
}

// convert checks that value can be stored in an object of type want,
// inserting an integer to floating conversion when needed. Initializer lists
// are checked against structures field by field and against arrays element
// by element.
func (b *Builder) convert(want syntax.TypeID, value tree.Node) (tree.Node, util.Diagnostic) {
	sx := b.sx
	if ast.KindOf(value) == ast.KindInitializer {
		count := ast.OperandCount(value)
		switch {
		case sx.IsStruct(want):
			fields := sx.Fields(want)
			if len(fields) != count {
				return value, util.Count{C: util.ErrWrongInitCount, Expected: len(fields), Got: count}
			}
			for i, f := range fields {
				if _, d := b.convert(f.Type, value.Child(i)); d != nil {
					return value, d
				}
			}
		case sx.IsArray(want):
			elem := sx.Elem(want)
			for i := 0; i < count; i++ {
				if _, d := b.convert(elem, value.Child(i)); d != nil {
					return value, d
				}
			}
		default:
			return value, util.Plain{C: util.ErrWrongInit}
		}
		ast.SetType(value, want)
		return value, nil
	}

	got := ast.Type(value)
	switch {
	case sx.IsFloating(want) && sx.IsInteger(got):
		return b.cast(want, value), nil
	case sx.IsInteger(want) && sx.IsFloating(got):
		return value, util.Plain{C: util.ErrFloatToInt}
	case sx.IsInteger(want) && sx.IsInteger(got):
		return value, nil
	case sx.TypesEqual(want, got):
		return value, nil
	}
	return value, util.Mismatch{Expected: sx.TypeString(want), Got: sx.TypeString(got)}
}

func (b *Builder) redeclared(err error, r syntax.ReprID, loc token.Location) {
	if errors.Is(err, syntax.ErrMainRedefined) {
		b.r.Error(loc, util.Plain{C: util.ErrMainRedefined})
		return
	}
	b.r.Error(loc, util.Name{C: util.ErrRedeclared, Name: b.sx.ReprText(r)})
}

// IsBuiltin reports whether a spelling currently resolves to a builtin.
func (b *Builder) IsBuiltin(r syntax.ReprID) (ast.Builtin, bool) {
	id := b.sx.Lookup(r)
	if id == 0 || b.sx.IdentKind(id) != syntax.IdentBuiltin {
		return 0, false
	}
	return ast.Builtin(b.sx.IdentDispl(id)), true
}

// TypeName resolves a spelling declared with typedef.
func (b *Builder) TypeName(r syntax.ReprID) (syntax.TypeID, bool) {
	id := b.sx.Lookup(r)
	if id == 0 || b.sx.IdentKind(id) != syntax.IdentTypeName {
		return 0, false
	}
	return b.sx.IdentType(id), true
}

// BuildUnit finishes the translation unit: a program needs an entry point
// and every declared function must be defined.
func (b *Builder) BuildUnit(end token.Location) tree.Node {
	if b.sx.Main() == 0 {
		b.r.Error(end, util.Plain{C: util.ErrNoMain})
	}
	for id := syntax.IdentID(1); int(id) <= b.sx.IdentCount(); id++ {
		if b.sx.IdentKind(id) == syntax.IdentFunction && !b.sx.IsDefined(id) {
			b.r.Error(b.funcLocs[id], util.Name{C: util.ErrFunctionNotDefined, Name: b.sx.IdentName(id)})
		}
	}
	return b.root
}
