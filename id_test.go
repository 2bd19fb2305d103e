package vidcache

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"plain file", "https://cdn.example.com/videos/abc123.mp4", "abc123.mp4"},
		{"query ignored", "https://cdn.example.com/videos/abc123.mp4?token=xyz", "abc123.mp4"},
		{"no extension", "https://cdn.example.com/videos/abc123", "abc123"},
		{"trailing slash", "https://cdn.example.com/videos/abc123/", "abc123"},
		{"escaped object path", "https://storage.example.com/v0/b/app/o/videos%2Fclip-7.mov?alt=media", "clip-7.mov"},
		{"multiple dots", "https://cdn.example.com/v/clip.final.mp4", "clip.final.mp4"},
		{"unsafe bytes", "https://cdn.example.com/v/a%20b%3Fc.mp4", "a_b_c.mp4"},
		{"leading dot replaced", "https://cdn.example.com/v/..x.mp4", "_.x.mp4"},
		{"extension only", "https://cdn.example.com/v/.mp4", "_mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ID(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDFallsBackToHash(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{
		"https://cdn.example.com",
		"https://cdn.example.com/",
		"https://cdn.example.com/v/..",
	} {
		got, err := ID(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, digest.FromString(ref).Encoded(), got, ref)
		assert.Len(t, got, 64, ref)
	}
}

func TestIDDeterministic(t *testing.T) {
	t.Parallel()

	refs := []string{
		"https://cdn.example.com/v/abc.mp4",
		"https://cdn.example.com/",
	}
	for _, ref := range refs {
		first, err := ID(ref)
		require.NoError(t, err)
		for range 5 {
			again, err := ID(ref)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}

	a, err := ID("https://a.example.com/")
	require.NoError(t, err)
	b, err := ID("https://b.example.com/")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIDKeepsExtension(t *testing.T) {
	t.Parallel()

	mp4, err := ID("https://cdn.example.com/v/clip.mp4")
	require.NoError(t, err)
	webm, err := ID("https://cdn.example.com/v/clip.webm")
	require.NoError(t, err)
	assert.NotEqual(t, mp4, webm)
}

func TestIDLengthCapped(t *testing.T) {
	t.Parallel()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got, err := ID("https://cdn.example.com/v/" + string(long) + ".mp4")
	require.NoError(t, err)
	assert.Len(t, got, maxIDLen)
}

func TestIDInvalid(t *testing.T) {
	t.Parallel()

	for _, ref := range []string{
		"",
		"   ",
		"bad-url",
		"/local/path/video.mp4",
		"cdn.example.com/v/a.mp4",
		"https://",
		"http://[::1",
	} {
		_, err := ID(ref)
		require.ErrorIs(t, err, ErrInvalidReference, "ref %q", ref)
	}
}
