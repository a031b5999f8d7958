package syntax

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gruc/pkg/tree"
)

func newSession() *Syntax { return New(0, nil) }

func TestInternIsStable(t *testing.T) {
	s := newSession()
	words := []string{"a", "b", "счётчик", "a", "main", "b", "ГЛАВНАЯ"}
	ids := make(map[string]ReprID)
	for _, w := range words {
		id := s.Intern(w)
		if prev, ok := ids[w]; ok && prev != id {
			t.Errorf("Intern(%q) = %d, earlier %d", w, id, prev)
		}
		ids[w] = id
		if got := s.ReprText(id); got != w {
			t.Errorf("ReprText(%d) = %q, want %q", id, got, w)
		}
	}
	if len(ids) != 5 {
		t.Errorf("got %d distinct representations, want 5", len(ids))
	}
}

func TestInternManyCollide(t *testing.T) {
	s := newSession()
	seen := make(map[ReprID]bool)
	for i := 0; i < 2000; i++ {
		id := s.Intern(string(rune('a'+i%26)) + string(rune('0'+i)))
		if seen[id] {
			t.Fatalf("representation %d handed out twice", id)
		}
		seen[id] = true
	}
}

func TestScopesShadowAndRestore(t *testing.T) {
	s := newSession()
	x := s.Intern("x")

	outer, err := s.AddIdent(x, IdentVariable, TypeInt)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddIdent(x, IdentVariable, TypeChar); !errors.Is(err, ErrRedeclared) {
		t.Errorf("same-scope redeclaration: err = %v, want ErrRedeclared", err)
	}

	sc := s.EnterBlock()
	inner, err := s.AddIdent(x, IdentVariable, TypeFloat)
	if err != nil {
		t.Fatalf("shadowing in a nested block: %v", err)
	}
	if s.Lookup(x) != inner || s.IdentType(s.Lookup(x)) != TypeFloat {
		t.Errorf("inner declaration is not visible")
	}
	if s.Ident(inner).Prev != outer {
		t.Errorf("inner declaration does not chain to the outer one")
	}
	s.ExitBlock(sc)

	if s.Lookup(x) != outer {
		t.Errorf("Lookup after ExitBlock = %d, want %d", s.Lookup(x), outer)
	}
	if s.Lookup(s.Intern("never")) != 0 {
		t.Errorf("undeclared spelling resolves to a declaration")
	}
}

func TestReprRefAndIdentType(t *testing.T) {
	s := newSession()
	y := s.Intern("y")
	if got := s.ReprRef(y); got != 0 {
		t.Fatalf("fresh spelling resolves to %d", got)
	}
	id, err := s.AddIdent(y, IdentVariable, TypeInt)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.ReprRef(y); got != id {
		t.Errorf("ReprRef = %d, want %d", got, id)
	}

	s.SetReprRef(y, 0)
	if s.Lookup(y) != 0 {
		t.Errorf("Lookup after SetReprRef(0) = %d", s.Lookup(y))
	}
	s.SetReprRef(y, id)

	arr := s.Array(TypeChar)
	s.SetIdentType(id, arr)
	if got := s.IdentType(s.Lookup(y)); got != arr {
		t.Errorf("IdentType = %s, want %s", s.TypeString(got), s.TypeString(arr))
	}
}

func TestDisplacements(t *testing.T) {
	s := newSession()
	point := s.Struct([]Field{{TypeInt, s.Intern("x")}, {TypeFloat, s.Intern("y")}})

	g1, _ := s.AddIdent(s.Intern("g1"), IdentVariable, TypeInt)
	g2, _ := s.AddIdent(s.Intern("g2"), IdentVariable, point)
	g3, _ := s.AddIdent(s.Intern("g3"), IdentVariable, TypeChar)

	fsc := s.EnterFunction()
	p, _ := s.AddIdent(s.Intern("p"), IdentVariable, TypeInt)
	bsc := s.EnterBlock()
	l1, _ := s.AddIdent(s.Intern("l1"), IdentVariable, point)
	s.ExitBlock(bsc)
	l2, _ := s.AddIdent(s.Intern("l2"), IdentVariable, TypeInt)
	frame := s.ExitFunction(fsc)

	got := []tree.Item{s.IdentDispl(g1), s.IdentDispl(g2), s.IdentDispl(g3), s.IdentDispl(p), s.IdentDispl(l1), s.IdentDispl(l2), frame}
	want := []tree.Item{-3, -4, -6, 3, 4, 4, 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("displacements mismatch (-want +got):\n%s", diff)
	}
	if s.MaxGlobalDispl() != 7 {
		t.Errorf("MaxGlobalDispl = %d, want 7", s.MaxGlobalDispl())
	}
}

func TestFunctionsAndMain(t *testing.T) {
	s := newSession()
	fn := s.Function(TypeVoid, nil)

	f, err := s.AddIdent(s.Intern("f"), IdentFunction, fn)
	if err != nil {
		t.Fatal(err)
	}
	m, err := s.AddIdent(s.Intern("Главная"), IdentFunction, fn)
	if err != nil {
		t.Fatal(err)
	}
	if s.IdentDispl(f) != 0 || s.IdentDispl(m) != 1 || s.FunctionCount() != 2 {
		t.Errorf("function numbers = %d, %d (count %d)", s.IdentDispl(f), s.IdentDispl(m), s.FunctionCount())
	}
	if s.Main() != m {
		t.Errorf("Main() = %d, want %d", s.Main(), m)
	}
	if _, err := s.AddIdent(s.Intern("MAIN"), IdentFunction, fn); !errors.Is(err, ErrMainRedefined) {
		t.Errorf("second entry point: err = %v, want ErrMainRedefined", err)
	}

	s.SetFunctionAddress(1, 42)
	if diff := cmp.Diff([]tree.Item{0, 42}, s.FunctionTable()); diff != "" {
		t.Errorf("function table mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelsStayOutOfScopes(t *testing.T) {
	s := newSession()
	r := s.Intern("done")
	v, _ := s.AddIdent(r, IdentVariable, TypeInt)
	sc := s.EnterBlock()
	if _, err := s.AddIdent(r, IdentLabel, TypeUndefined); err != nil {
		t.Fatal(err)
	}
	if s.Lookup(r) != v {
		t.Errorf("label replaced the visible variable")
	}
	s.ExitBlock(sc)
	if s.Lookup(r) != v {
		t.Errorf("ExitBlock disturbed the variable through a label")
	}
}

func TestTables(t *testing.T) {
	s := newSession()
	r := s.Intern("ab")
	id, _ := s.AddIdent(r, IdentVariable, TypeInt)

	if diff := cmp.Diff([]tree.Item{tree.Item(id), 2, 'a', 'b'}, s.ReprTable()); diff != "" {
		t.Errorf("repr table mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]tree.Item{0, tree.Item(r), tree.Item(TypeInt), -3}, s.IdentTable()); diff != "" {
		t.Errorf("ident table mismatch (-want +got):\n%s", diff)
	}

	if i := s.AddString("hi"); s.String(i) != "hi" || s.String(i+1) != "" {
		t.Errorf("string table lookup failed")
	}
}
