// Package media talks to the remote image host. Uploaded objects live
// under a fixed folder and are addressed by a stable public id.
package media

import (
	"context"
	"path"
	"strings"

	"github.com/akozlov/clothes-shop/internal/models"
)

const folder = "products"

// Host is the gateway contract handlers depend on. The S3 client
// implements it; tests substitute a recording fake.
type Host interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// ObjectKey derives the stable public id for an upload: the bare file
// name with its extension stripped, under the products folder.
func ObjectKey(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return folder + "/" + strings.TrimSuffix(base, path.Ext(base))
}
