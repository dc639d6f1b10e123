package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseParamKindPrimitives(t *testing.T) {
	tests := []struct {
		desc string
		kind paramKind
		n    int
	}{
		{"I", kindInt, 1},
		{"B", kindInt, 1},
		{"C", kindInt, 1},
		{"S", kindInt, 1},
		{"J", kindLong, 1},
		{"F", kindFloat, 1},
		{"D", kindDouble, 1},
		{"Z", kindBoolean, 1},
		{"V", kindVoid, 1},
	}
	for _, tt := range tests {
		k, n, err := parseParamKind(tt.desc)
		require.NoError(t, err)
		require.Equal(t, tt.kind, k)
		require.Equal(t, tt.n, n)
	}
}

func TestParseParamKindReferenceAndArray(t *testing.T) {
	k, n, err := parseParamKind("Ljava/lang/String;I")
	require.NoError(t, err)
	require.Equal(t, kindRef, k)
	require.Equal(t, len("Ljava/lang/String;"), n)

	k, n, err = parseParamKind("[[I")
	require.NoError(t, err)
	require.Equal(t, kindRef, k)
	require.Equal(t, 3, n)
}

func TestParseParamKindErrors(t *testing.T) {
	_, _, err := parseParamKind("")
	require.Error(t, err)

	_, _, err = parseParamKind("Lunterminated")
	require.Error(t, err)

	_, _, err = parseParamKind("Q")
	require.Error(t, err)
}

func TestParseMethodDescriptor(t *testing.T) {
	sig, err := parseMethodDescriptor("(IJLjava/lang/String;)V")
	require.NoError(t, err)
	require.Equal(t, []paramKind{kindInt, kindLong, kindRef}, sig.Params)
	require.Equal(t, kindVoid, sig.Return)
	require.Equal(t, 4, sig.paramSlotWidth()) // I=1, J=2, L=1

	sig, err = parseMethodDescriptor("()I")
	require.NoError(t, err)
	require.Empty(t, sig.Params)
	require.Equal(t, kindInt, sig.Return)
	require.Equal(t, 0, sig.paramSlotWidth())
}

func TestParseMethodDescriptorErrors(t *testing.T) {
	_, err := parseMethodDescriptor("IJ)V")
	require.Error(t, err)

	_, err = parseMethodDescriptor("(IJ")
	require.Error(t, err)
}
