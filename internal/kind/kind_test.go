package kind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Kind
		expected bool
	}{
		{"value equals value", Value, &Basic{N: 0}, true},
		{"value not equal type", Value, Type, false},
		{"poly equals poly", &Poly{Arg: Type, Result: Value}, &Poly{Arg: Type, Result: Value}, true},
		{"poly not equal differing arg", &Poly{Arg: Type, Result: Value}, &Poly{Arg: TypeOfT, Result: Value}, false},
		{"basic not equal poly", Type, &Poly{Arg: Type, Result: Type}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
			// symmetric
			assert.Equal(t, tt.expected, Equal(tt.b, tt.a))
		})
	}
}

func TestEqualReflexiveSymmetricTransitive(t *testing.T) {
	ks := []Kind{Value, Type, TypeOfT, &Poly{Arg: Type, Result: Value}, &Poly{Arg: Type, Result: &Poly{Arg: Type, Result: Value}}}
	for _, k := range ks {
		assert.True(t, Equal(k, k), "reflexive")
	}
	a, b, c := Type, &Basic{N: 1}, &Basic{N: 1}
	assert.True(t, Equal(a, b))
	assert.True(t, Equal(b, c))
	assert.True(t, Equal(a, c), "transitive")
}

func TestLevelOfPolyIsResultLevel(t *testing.T) {
	p := &Poly{Arg: Type, Result: TypeOfT}
	assert.Equal(t, TypeOfT.Level(), p.Level())
}

func TestAdjustComposes(t *testing.T) {
	k := &Poly{Arg: Type, Result: Value}
	m, n := 2, 3
	left := Adjust(Adjust(k, m), n)
	right := Adjust(k, m+n)
	assert.True(t, Equal(left, right), "Adjust(Adjust(k,m),n) must equal Adjust(k,m+n)")
}

func TestAdjustZeroIsIdentity(t *testing.T) {
	k := &Poly{Arg: Type, Result: Value}
	assert.True(t, Equal(k, Adjust(k, 0)))
}

func TestNamespaceOf(t *testing.T) {
	assert.Equal(t, ValueNamespace, NamespaceOf(Value))
	assert.Equal(t, TypeNamespace, NamespaceOf(Type))
	assert.Equal(t, TypeNamespace, NamespaceOf(TypeOfT))
	assert.Equal(t, ValueNamespace, NamespaceOf(&Poly{Arg: Type, Result: Value}))
}
