package value

import "testing"

func TestNumericEqualityAcrossKinds(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
	}{
		{"int-float", NewInt(2), NewFloat(2)},
		{"int-bool", NewInt(1), NewBool(true)},
		{"int-char", NewInt(65), NewChar(65)},
		{"float-bool", NewFloat(0), NewBool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := tt.a.Compare(tt.b, RE)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !eq {
				t.Fatalf("expected %s == %s", tt.a.ValueStr(), tt.b.ValueStr())
			}
		})
	}
}

func TestArithmeticPromotion(t *testing.T) {
	i := NewInt(2)
	f := NewFloat(3.5)
	r, err := i.Add(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*Float); !ok {
		t.Fatalf("expected Float result from mixed add, got %T", r)
	}
	if r.AsFloat() != 5.5 {
		t.Fatalf("expected 5.5, got %v", r.AsFloat())
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := NewInt(1).Div(NewInt(0))
	if err == nil {
		t.Fatal("expected division by zero error")
	}
	_, err = NewFloat(1).Div(NewFloat(0))
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestModTruncationOnFloat(t *testing.T) {
	r, err := NewFloat(5.5).Mod(NewFloat(2))
	if err != nil {
		t.Fatal(err)
	}
	if r.AsFloat() != 1.5 {
		t.Fatalf("expected 1.5, got %v", r.AsFloat())
	}
}

func TestDictInsertionOrderSurvivesDeletion(t *testing.T) {
	d := NewDict()
	d.Set(NewString("a"), NewInt(1))
	d.Set(NewString("b"), NewInt(2))
	d.Set(NewString("c"), NewInt(3))
	d.Remove(NewString("b"))

	keys := d.Keys()
	want := []string{`"a"`, `"c"`}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestListSubRangeAndSplice(t *testing.T) {
	l := NewList([]Value{NewInt(1), NewInt(2), NewInt(3), NewInt(4)})
	sub, err := l.SubRange(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Size() != 2 {
		t.Fatalf("expected size 2, got %d", sub.Size())
	}

	other := NewList([]Value{NewInt(9)})
	if err := l.Splice(other); err != nil {
		t.Fatal(err)
	}
	if l.Size() != 5 {
		t.Fatalf("expected size 5 after splice, got %d", l.Size())
	}
}

func TestCursorExhaustionYieldsNull(t *testing.T) {
	l := NewList([]Value{NewInt(1)})
	l.Begin()
	first := l.Next()
	if first.ValueStr() != "1" {
		t.Fatalf("expected 1, got %s", first.ValueStr())
	}
	second := l.Next()
	if _, ok := second.(*Null); !ok {
		t.Fatalf("expected Null after exhaustion, got %T", second)
	}
}

func TestIndependentIterStates(t *testing.T) {
	l := NewList([]Value{NewInt(1), NewInt(2), NewInt(3)})
	outer := BeginIter(l)
	inner := BeginIter(l)

	if outer.Next().ValueStr() != "1" {
		t.Fatal("outer cursor desynced")
	}
	if inner.Next().ValueStr() != "1" {
		t.Fatal("inner cursor should start independently at 1")
	}
	if outer.Next().ValueStr() != "2" {
		t.Fatal("outer cursor should advance independently")
	}
}

func TestCustomTypeFieldPolicy(t *testing.T) {
	base, err := NewCustomType("Animal", nil)
	if err != nil {
		t.Fatal(err)
	}
	base.AddInstanceFieldDefault("name", NewString(""))
	base.AddTypeField("population", NewInt(0))

	dog, err := NewCustomType("Dog", base)
	if err != nil {
		t.Fatal(err)
	}
	dog.AddInstanceFieldDefault("breed", NewString("unknown"))

	if !dog.CheckBelongsTo(base) {
		t.Fatal("expected Dog to belong to Animal")
	}

	inst := NewCustomInst(dog)
	if v, ok := inst.Field("name"); !ok || v.ValueStr() != "" {
		t.Fatalf("expected inherited default name field, got %v %v", v, ok)
	}
	if err := inst.SetField("breed", NewString("husky"), nil); err != nil {
		t.Fatal(err)
	}
	if v, ok := inst.Field("breed"); !ok || v.ValueStr() != "husky" {
		t.Fatalf("expected breed=husky, got %v %v", v, ok)
	}
}

func TestQuoteTransparency(t *testing.T) {
	r := &fakeResolver{store: map[string]Value{"x": NewInt(41)}}
	target := fakeDataID("x")
	q := NewQuote(target)

	v, err := q.Read(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.ValueStr() != "41" {
		t.Fatalf("expected 41, got %s", v.ValueStr())
	}
	if err := q.Write(r, NewInt(42)); err != nil {
		t.Fatal(err)
	}
	v2, _ := q.Read(r)
	if v2.ValueStr() != "42" {
		t.Fatalf("expected 42 after write, got %s", v2.ValueStr())
	}
}
