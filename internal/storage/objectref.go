package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ObjectRef identifies a remote object derived from its public URL.
// Only the URL is persisted, so the reference is reconstructed from
// the URL's last two path segments. The contract is a fixed shape:
// .../<folder>/<name>.<ext> for image objects and .../<folder>/<name>
// for raw objects. Query strings and fragments are ignored; anything
// with fewer than two path segments is rejected.
type ObjectRef struct {
	Kind      BucketKind
	PublicURL string
	// PublicID is <folder>/<name> with the extension stripped for
	// image objects.
	PublicID string
	// ObjectKey is the key as stored in the bucket, extension included.
	ObjectKey string
}

// ObjectKey builds the bucket key for an object. The inverse of the
// derivation in ParseObjectURL.
func ObjectKey(kind BucketKind, folder, name, format string) string {
	if kind == BucketImage && format != "" {
		return folder + "/" + name + "." + format
	}
	return folder + "/" + name
}

// ParseObjectURL derives an ObjectRef from a persisted public URL.
func ParseObjectURL(rawURL string, kind BucketKind) (ObjectRef, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ObjectRef{}, fmt.Errorf("invalid object URL %q: %w", rawURL, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ObjectRef{}, fmt.Errorf("object URL %q has no folder/name path", rawURL)
	}

	folder := segments[len(segments)-2]
	name := segments[len(segments)-1]
	if folder == "" || name == "" {
		return ObjectRef{}, fmt.Errorf("object URL %q has empty path segments", rawURL)
	}

	key := folder + "/" + name
	publicID := key
	if kind == BucketImage {
		publicID = folder + "/" + strings.TrimSuffix(name, path.Ext(name))
	}

	return ObjectRef{
		Kind:      kind,
		PublicURL: rawURL,
		PublicID:  publicID,
		ObjectKey: key,
	}, nil
}
