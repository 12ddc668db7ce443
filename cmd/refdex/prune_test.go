package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/refdex/refdex"
	main "github.com/refdex/refdex/cmd/refdex"
	"github.com/refdex/refdex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires --force before touching anything", func(t *testing.T) {
		t.Parallel()

		locked := false
		locker := &mock.Locker{
			AcquireFn: func(_ time.Duration) (func(), error) {
				locked = true
				return func() {}, nil
			},
		}
		deleted := false
		indexSvc := &mock.IndexService{
			DeleteIndexEntriesFn: func(_ context.Context, _ refdex.IndexEntryFilter) (int, error) {
				deleted = true
				return 0, nil
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Locker: locker,
			Index:  indexSvc,
		}

		cmd := &main.PruneCmd{Model: "model-a@4"}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, refdex.EINVALID, refdex.ErrorCode(err))
		assert.Contains(t, stderr.String(), "use --force to confirm deletion")
		assert.False(t, locked, "refusing to prune should not take the lock")
		assert.False(t, deleted)
	})

	t.Run("deletes the entries and drops the collection", func(t *testing.T) {
		t.Parallel()

		var captured refdex.IndexEntryFilter
		indexSvc := &mock.IndexService{
			DeleteIndexEntriesFn: func(_ context.Context, filter refdex.IndexEntryFilter) (int, error) {
				captured = filter
				return 3, nil
			},
		}
		var dropped string
		vectors := &mock.VectorStore{
			DropModelFn: func(_ context.Context, modelID string) error {
				dropped = modelID
				return nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Locker:  grantLock(),
			Index:   indexSvc,
			Vectors: vectors,
		}

		cmd := &main.PruneCmd{Model: "model-a@4", Force: true}
		err := cmd.Run(deps)

		require.NoError(t, err)
		require.NotNil(t, captured.ModelID)
		assert.Equal(t, "model-a@4", *captured.ModelID)
		assert.Equal(t, "model-a@4", dropped)
		assert.Contains(t, stdout.String(), `Removed 3 index entries for "model-a@4"`)
	})

	t.Run("returns error when the vector drop fails", func(t *testing.T) {
		t.Parallel()

		indexSvc := &mock.IndexService{
			DeleteIndexEntriesFn: func(_ context.Context, _ refdex.IndexEntryFilter) (int, error) {
				return 2, nil
			},
		}
		vectors := &mock.VectorStore{
			DropModelFn: func(_ context.Context, _ string) error {
				return refdex.Errorf(refdex.EUNAVAILABLE, "vector store unavailable")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Locker:  grantLock(),
			Index:   indexSvc,
			Vectors: vectors,
		}

		cmd := &main.PruneCmd{Model: "model-a@4", Force: true}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, refdex.EUNAVAILABLE, refdex.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})
}
