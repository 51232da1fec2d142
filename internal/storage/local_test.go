package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templify/internal/apperror"
)

func TestLocalBackend_SaveFetchDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	be, err := NewLocal(root)
	require.NoError(t, err)

	data := []byte("hello template")

	stored, err := be.Save(ctx, "system/abc-letter.docx", data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)
	assert.Equal(t, "system/abc-letter.docx", stored)

	// Directory tree was created under the root.
	_, err = os.Stat(filepath.Join(root, "system", "abc-letter.docx"))
	require.NoError(t, err)

	got, err := be.Fetch(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, be.Delete(ctx, stored))

	_, err = be.Fetch(ctx, stored)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestLocalBackend_DeleteMissing(t *testing.T) {
	be, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = be.Delete(context.Background(), "nope.docx")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestLocalBackend_EmptyPath(t *testing.T) {
	be, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = be.Fetch(ctx, "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidArgument))

	err = be.Delete(ctx, "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidArgument))

	_, err = be.Save(ctx, "", nil, "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidArgument))
}

func TestLocalBackend_TraversalStaysInRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	be, err := NewLocal(root)
	require.NoError(t, err)

	stored, err := be.Save(ctx, "../../escape.docx", []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "escape.docx", stored)

	_, err = os.Stat(filepath.Join(root, "escape.docx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.docx"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewLocal_RequiresRoot(t *testing.T) {
	_, err := NewLocal("")
	assert.Error(t, err)
}
