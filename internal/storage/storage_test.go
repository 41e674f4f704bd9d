package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrainerImageKey(t *testing.T) {
	key, err := TrainerImageKey("abc123", "image/PNG")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "trainers/abc123/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.True(t, IsTrainerImageKey("abc123", key))
	require.False(t, IsTrainerImageKey("other", key))

	again, err := TrainerImageKey("abc123", "image/png")
	require.NoError(t, err)
	require.NotEqual(t, key, again)
}

func TestTrainerImageKey_RejectsNonImages(t *testing.T) {
	_, err := TrainerImageKey("abc123", "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestIsTrainerImageKey_RejectsNestedPaths(t *testing.T) {
	require.False(t, IsTrainerImageKey("abc123", "trainers/abc123/../other/x.png"))
	require.False(t, IsTrainerImageKey("abc123", "users/abc123/x.png"))
}
