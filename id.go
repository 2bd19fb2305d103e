package vidcache

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
)

const maxIDLen = 128

// ID derives the cache id for a reference.
//
// The id is the last segment of the URL path, extension included, with unsafe
// bytes replaced by '_'; clip.mp4 and clip.webm are distinct ids. When the
// path has no usable segment the id is the hex SHA-256 of the whole
// reference. ID is a pure function of ref.
func ID(ref string) (string, error) {
	u, err := parseReference(ref)
	if err != nil {
		return "", err
	}
	if id := pathID(u.Path); id != "" {
		return id, nil
	}
	return digest.FromString(ref).Encoded(), nil
}

func parseReference(ref string) (*url.URL, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidReference, ref)
	}
	return u, nil
}

func pathID(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	seg := path.Base(p)
	if seg == "." || seg == ".." || seg == "/" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(seg))
	for i := 0; i < len(seg) && b.Len() < maxIDLen; i++ {
		c := seg[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		case c == '.' && b.Len() > 0:
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
