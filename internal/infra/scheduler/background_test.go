package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackgroundRunsTasks(t *testing.T) {
	var runs atomic.Int32
	b, err := New(context.Background(), nil, Task{
		Name:     "count",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) (int, error) {
			runs.Add(1)
			return 1, nil
		},
	})
	require.NoError(t, err)

	b.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, b.Shutdown())
}

func TestBackgroundValidatesTasks(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoTasks)

	_, err = New(context.Background(), nil, Task{Name: "broken"})
	require.Error(t, err)
}
