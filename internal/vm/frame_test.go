package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramePushPopLIFO(t *testing.T) {
	f := NewFrame(0, 10, nil, nil, "test")
	f.Push(IntItem(10))
	f.Push(IntItem(20))
	f.Push(IntItem(30))

	require.Equal(t, int32(30), f.Pop().I32)
	require.Equal(t, int32(20), f.Pop().I32)
	require.Equal(t, int32(10), f.Pop().I32)
}

func TestFramePushOverflowPanics(t *testing.T) {
	f := NewFrame(0, 1, nil, nil, "test")
	f.Push(IntItem(1))
	require.Panics(t, func() { f.Push(IntItem(2)) })
}

func TestFramePopUnderflowPanics(t *testing.T) {
	f := NewFrame(0, 1, nil, nil, "test")
	require.Panics(t, func() { f.Pop() })
}

func TestFrameLocalOutOfRangePanics(t *testing.T) {
	f := NewFrame(2, 0, nil, nil, "test")
	require.Panics(t, func() { f.GetLocal(2) })
	require.Panics(t, func() { f.SetLocal(-1, IntItem(0)) })
}

func TestFrameLongRoundTrip(t *testing.T) {
	f := NewFrame(0, 2, nil, nil, "test")
	f.PushLong(1000000000 * 1000000000)
	require.Equal(t, int64(1000000000*1000000000), f.PopLong())

	f.PushLong(-1)
	require.Equal(t, int64(-1), f.PopLong())
}

func TestFrameDoubleRoundTrip(t *testing.T) {
	f := NewFrame(0, 2, nil, nil, "test")
	f.PushDouble(3.5)
	require.Equal(t, 3.5, f.PopDouble())
}

func TestRecoverFrameFaultConvertsFault(t *testing.T) {
	var err error
	func() {
		defer recoverFrameFault("ctx", &err)
		panic(frameFault{"boom"})
	}()
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestRecoverFrameFaultRepanicsOtherValues(t *testing.T) {
	require.Panics(t, func() {
		var err error
		defer recoverFrameFault("ctx", &err)
		panic("not a frame fault")
	})
}
