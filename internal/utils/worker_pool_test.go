package utils_test

import (
	"sync/atomic"
	"testing"

	"github.com/RubixDev/immich-gpx/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_ForEachRunsEveryIndex(t *testing.T) {
	pool := utils.NewWorkerPool(4)
	defer pool.Shutdown()

	out := make([]int, 100)
	pool.ForEach(len(out), func(i int) { out[i] = i * i })

	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestWorkerPool_SubmitAndShutdown(t *testing.T) {
	pool := utils.NewWorkerPool(0)
	assert.Equal(t, 1, pool.Workers())

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		pool.Submit(func() { count.Add(1) })
	}
	pool.Shutdown()
	pool.Shutdown()
	assert.Equal(t, int32(10), count.Load())
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, utils.Dedupe([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, utils.Dedupe[string](nil))
}
