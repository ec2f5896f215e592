package alternator

import (
	"bytes"
	"context"
	"errors"
	"math"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/go-baton/emission"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"
)

func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for runtime.NumGoroutine() > before {
			if time.Now().After(deadline) {
				t.Errorf(`expected at most %d goroutines, got %d`, before, runtime.NumGoroutine())
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// requireParity asserts the emissions reconstruct start..end, alternating
// even and odd, with each participant emitting its own parity class.
func requireParity[T constraints.Integer](t *testing.T, emissions []emission.Emission[T], start, end T) {
	t.Helper()
	if end < start {
		require.Empty(t, emissions)
		return
	}
	require.Equal(t, int(int64(end)-int64(start))+1, len(emissions))
	for k, e := range emissions {
		require.Equal(t, start+T(k), e.Value, k)
		require.Equal(t, k%2, e.Participant, k)
		if k%2 == 0 {
			require.Equal(t, `even`, e.Name, k)
		} else {
			require.Equal(t, `odd`, e.Name, k)
		}
	}
}

func TestCount_scenarios(t *testing.T) {
	for _, tc := range [...]struct {
		name       string
		start, end int
		lines      []string
	}{
		{
			name:  `zero to eight`,
			start: 0,
			end:   8,
			lines: []string{`even: 0`, `odd: 1`, `even: 2`, `odd: 3`, `even: 4`, `odd: 5`, `even: 6`, `odd: 7`, `even: 8`},
		},
		{
			name:  `even length`,
			start: 3,
			end:   6,
			lines: []string{`even: 3`, `odd: 4`, `even: 5`, `odd: 6`},
		},
		{
			name:  `single value`,
			start: 7,
			end:   7,
			lines: []string{`even: 7`},
		},
		{
			name:  `empty range`,
			start: 10,
			end:   9,
		},
		{
			name:  `negative`,
			start: -3,
			end:   -1,
			lines: []string{`even: -3`, `odd: -2`, `even: -1`},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer checkNumGoroutines(time.Second * 3)(t)
			var sink emission.Recorder[int]
			result, err := Count(context.Background(), tc.start, tc.end, &sink)
			require.NoError(t, err)
			assert.Equal(t, tc.lines, sink.Lines())
			assert.Equal(t, len(tc.lines), result.Emitted)
			assert.Empty(t, result.Stranded)
		})
	}
}

func TestCount_parity(t *testing.T) {
	for _, r := range [...][2]int{{0, 0}, {0, 1}, {-50, 51}, {1, 1000}, {5, -5}} {
		var sink emission.Recorder[int]
		result, err := Count(context.Background(), r[0], r[1], &sink)
		require.NoError(t, err)
		requireParity(t, sink.Emissions(), r[0], r[1])
		assert.Equal(t, sink.Len(), result.Emitted)
	}
}

// striding past the end of the range must not wrap around
func TestCount_noOverflow(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	t.Run(`int8 full range`, func(t *testing.T) {
		var sink emission.Recorder[int8]
		result, err := Count[int8](context.Background(), math.MinInt8, math.MaxInt8, &sink)
		require.NoError(t, err)
		assert.Equal(t, 256, result.Emitted)
		requireParity[int8](t, sink.Emissions(), math.MinInt8, math.MaxInt8)
	})

	t.Run(`uint8 at max`, func(t *testing.T) {
		var sink emission.Recorder[uint8]
		_, err := Count[uint8](context.Background(), 252, math.MaxUint8, &sink)
		require.NoError(t, err)
		requireParity[uint8](t, sink.Emissions(), 252, math.MaxUint8)
	})

	t.Run(`single value at max`, func(t *testing.T) {
		var sink emission.Recorder[uint8]
		_, err := Count[uint8](context.Background(), math.MaxUint8, math.MaxUint8, &sink)
		require.NoError(t, err)
		assert.Equal(t, []string{`even: 255`}, sink.Lines())
	})
}

func TestCount_names(t *testing.T) {
	var sink emission.Recorder[int]
	_, err := Count(context.Background(), 0, 3, &sink, nil, WithNames(`pool-1-thread-1`, `pool-1-thread-2`))
	require.NoError(t, err)
	assert.Equal(t, []string{`pool-1-thread-1: 0`, `pool-1-thread-2: 1`, `pool-1-thread-1: 2`, `pool-1-thread-2: 3`}, sink.Lines())
}

func TestCount_invalidNames(t *testing.T) {
	result, err := Count(context.Background(), 0, 3, &emission.Recorder[int]{}, WithNames(`a`, ``))
	assert.EqualError(t, err, `alternator: invalid names: must not be empty`)
	assert.Nil(t, result)
}

func TestCount_panics(t *testing.T) {
	//lint:ignore SA1012 testing nil context
	assert.PanicsWithValue(t, `alternator: nil context`, func() { _, _ = Count[int](nil, 0, 1, &emission.Recorder[int]{}) })
	assert.PanicsWithValue(t, `alternator: nil sink`, func() { _, _ = Count[int](context.Background(), 0, 1, nil) })
}

func TestCount_sinkError(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	expected := errors.New(`some error`)
	var sink emission.Recorder[int]
	result, err := Count(context.Background(), 0, 100, emission.SinkFunc[int](func(e emission.Emission[int]) error {
		if e.Value == 5 {
			return expected
		}
		return sink.Emit(e)
	}))
	require.ErrorIs(t, err, expected)
	assert.EqualError(t, err, `alternator: odd: emit: some error`)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sink.Values())
	assert.Equal(t, 5, result.Emitted)
	assert.Empty(t, result.Stranded)
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.String()
}

func TestCount_ctxCancel(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	var logs syncBuffer
	logger := stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(&logs), stumpy.WithTimeField(``)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink emission.Recorder[int]
	result, err := Count(ctx, 0, math.MaxInt, emission.SinkFunc[int](func(e emission.Emission[int]) error {
		if e.Value == 6 {
			cancel()
		}
		return sink.Emit(e)
	}), WithLogger(logger.Logger()))
	require.NoError(t, err, `cancellation is not an error`)
	assert.Equal(t, []int{Even, Odd}, result.Stranded)
	// odd may win the race between the cancel and the hand-off
	values := sink.Values()
	if len(values) == 8 {
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, values)
	} else {
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, values)
	}
	assert.Equal(t, len(values), result.Emitted)

	output := logs.String()
	assert.Equal(t, 2, strings.Count(output, `"msg":"participant stranded"`), output)
	assert.Contains(t, output, `"name":"even"`)
	assert.Contains(t, output, `"name":"odd"`)
}

func TestCount_canceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Count(ctx, 0, 10, emission.SinkFunc[int](func(emission.Emission[int]) error {
		t.Error(`unexpected emit`)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{Even, Odd}, result.Stranded)
	assert.Equal(t, 0, result.Emitted)
}

func TestCount_strictAlternation(t *testing.T) {
	var a emission.Recorder[int]
	_, err := Count(context.Background(), 11, 40, &a)
	require.NoError(t, err)
	require.Len(t, a.Values(), 30)
	for k, e := range a.Emissions() {
		assert.Equal(t, k%2, e.Participant)
	}
}
