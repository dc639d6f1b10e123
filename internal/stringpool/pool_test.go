package stringpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jvmlet/internal/stringpool"
)

func TestInternIsIdempotent(t *testing.T) {
	p := stringpool.New()

	id1 := p.Intern("java/lang/Object")
	id2 := p.Intern("java/lang/Object")
	require.Equal(t, id1, id2)

	other := p.Intern("java/lang/System")
	require.NotEqual(t, id1, other)
}

func TestResolveRoundTrip(t *testing.T) {
	p := stringpool.New()
	id := p.Intern("Hello, World!")

	text, err := p.Resolve(id)
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", text)
}

func TestResolveUnknownID(t *testing.T) {
	p := stringpool.New()
	_, err := p.Resolve(42)
	require.Error(t, err)
}
