package content

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
)

// Dir serves files below Root. Locations may be relative paths, absolute
// paths under Root, or file:// URLs; nothing outside Root is readable.
type Dir struct {
	Root string
}

func (d *Dir) Fetch(ctx context.Context, location string) (string, error) {
	rel, ok := d.relative(location)
	if !ok {
		return "", ErrNotHandled
	}

	root, err := os.OpenRoot(d.Root)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	defer root.Close()

	f, err := root.Open(rel)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	return string(data), nil
}

// relative maps location to a slash path relative to Root.
func (d *Dir) relative(location string) (string, bool) {
	p := location
	switch {
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return "", false
		}
		p = u.Path
	case strings.Contains(location, "://"):
		return "", false
	}

	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if strings.HasPrefix(p, "/") {
		root := path.Clean(strings.ReplaceAll(d.Root, `\`, "/"))
		if p != root && !strings.HasPrefix(p, root+"/") {
			// Absolute paths outside the root are looked up relative to it.
			return strings.TrimPrefix(p, "/"), true
		}
		p = strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
	}
	if p == "" || p == "." {
		return "", false
	}
	return p, true
}
