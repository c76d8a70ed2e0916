package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

// waitDone polls until the job reaches a terminal state.
func waitDone(t *testing.T, store *Store, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(id)
		require.NoError(t, err)
		if job.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return Job{}
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("input"), 0644))
	return path
}

func TestPoolExecutesJob(t *testing.T) {
	store := newTestStore(t)
	input := writeInput(t, "deck.json")

	result := filepath.Join(t.TempDir(), "out.mp4")
	task := func(ctx context.Context, job Job, progress func(string)) error {
		progress("composing")
		return os.WriteFile(result, []byte("video"), 0644)
	}

	pool := NewPool(store, task, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job := NewJob(input)
	job.ResultPath = result
	require.NoError(t, pool.Enqueue(job))

	final := waitDone(t, store, job.ID)
	assert.Equal(t, StatusSuccess, final.Status)
	assert.Empty(t, final.Detail)

	_, err := os.Stat(result)
	assert.NoError(t, err, "result file survives a successful job")
	_, err = os.Stat(input)
	assert.True(t, os.IsNotExist(err), "input files are removed after the job")

	cancel()
	pool.Wait()
}

func TestPoolRecordsFailure(t *testing.T) {
	store := newTestStore(t)
	input := writeInput(t, "deck.json")

	result := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(result, []byte("partial"), 0644))
	task := func(ctx context.Context, job Job, progress func(string)) error {
		return errors.New("ffmpeg exploded")
	}

	pool := NewPool(store, task, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job := NewJob(input)
	job.ResultPath = result
	require.NoError(t, pool.Enqueue(job))

	final := waitDone(t, store, job.ID)
	assert.Equal(t, StatusFailure, final.Status)
	assert.Contains(t, final.Detail, "ffmpeg exploded")

	_, err := os.Stat(result)
	assert.True(t, os.IsNotExist(err), "partial results are removed on failure")
	_, err = os.Stat(input)
	assert.True(t, os.IsNotExist(err))
}

func TestPoolProgressVisible(t *testing.T) {
	store := newTestStore(t)

	seen := make(chan struct{})
	release := make(chan struct{})
	task := func(ctx context.Context, job Job, progress func(string)) error {
		progress("slide 3 of 9")
		close(seen)
		<-release
		return nil
	}

	pool := NewPool(store, task, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job := NewJob()
	require.NoError(t, pool.Enqueue(job))
	<-seen

	mid, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProgress, mid.Status)
	assert.Equal(t, "slide 3 of 9", mid.Detail)
	assert.Equal(t, "PROGRESS: slide 3 of 9", Describe(mid))

	close(release)
	final := waitDone(t, store, job.ID)
	assert.Equal(t, StatusSuccess, final.Status)
	assert.Equal(t, "SUCCESS", Describe(final))
}

func TestPoolQueueFull(t *testing.T) {
	store := newTestStore(t)
	task := func(ctx context.Context, job Job, progress func(string)) error { return nil }

	// Never started, so the queue only drains by capacity.
	pool := NewPool(store, task, 1, 1)

	require.NoError(t, pool.Enqueue(NewJob()))

	overflow := NewJob()
	err := pool.Enqueue(overflow)
	assert.True(t, errs.HasCode(err, errs.CodeInvalidState))

	_, getErr := store.Get(overflow.ID)
	assert.True(t, errs.HasCode(getErr, errs.CodeNotFound), "rejected jobs are not persisted")
}
