package media

import (
	"fmt"
	"strings"
	"time"
)

// ObjectPath places an upload in the object store as
// {kind}/{yyyy}/{mm}/{id}{ext}. The month directory keeps listings small and
// makes retention sweeps cheap.
func ObjectPath(kind Kind, uploadedAt time.Time, id, ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	uploadedAt = uploadedAt.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s%s", kind, uploadedAt.Year(), int(uploadedAt.Month()), id, ext)
}
