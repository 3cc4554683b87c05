package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDownload(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "decision-trees/fire_decision_tree.de.json", strings.NewReader(`{"root":{}}`)))

	data, err := ReadAll(ctx, s, "decision-trees/fire_decision_tree.de.json")
	require.NoError(t, err)
	assert.Equal(t, `{"root":{}}`, string(data))
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "decision-trees/missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../secret.json", "a/../../b.json", "", "/"} {
		_, err := s.Download(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStorage_List(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{
		"decision-trees/b.de.json",
		"decision-trees/a.de.json",
		"decision-trees/nested/c.en.yaml",
		"hazards_meta.json",
	} {
		require.NoError(t, s.Upload(ctx, key, strings.NewReader("{}")))
	}

	keys, err := s.List(ctx, "decision-trees")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"decision-trees/a.de.json",
		"decision-trees/b.de.json",
		"decision-trees/nested/c.en.yaml",
	}, keys)

	keys, err = s.List(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStorage_Delete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "x.json", strings.NewReader("{}")))
	require.NoError(t, s.Delete(ctx, "x.json"))
	require.NoError(t, s.Delete(ctx, "x.json"))

	_, err = s.Download(ctx, "x.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
