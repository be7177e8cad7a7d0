package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ExampleNamedFunction() {}

func TestFuncName_NamedFunction(t *testing.T) {
	name, ok := FuncName(ExampleNamedFunction)
	assert.True(t, ok)
	assert.Equal(t, "ExampleNamedFunction", name)
}

func TestFuncName_RejectsClosure(t *testing.T) {
	closure := func() {}
	_, ok := FuncName(closure)
	assert.False(t, ok)
}

func TestFuncName_RejectsNilAndNonFunc(t *testing.T) {
	_, ok := FuncName(nil)
	assert.False(t, ok)

	_, ok = FuncName(42)
	assert.False(t, ok)
}
