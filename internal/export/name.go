package export

import (
	"fmt"
	"strings"
	"time"

	"RosetteBoard/internal/state"
)

// FileName builds a download name such as rosette_D6_2024-05-01T10-20-30-000Z.png
// from the symmetry group and the UTC time.
func FileName(ext string, s state.Settings, now time.Time) string {
	group := "C"
	if s.ReflectionEnabled {
		group = "D"
	}
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return fmt.Sprintf("rosette_%s%d_%s.%s", group, s.RotationOrder, stamp, strings.TrimPrefix(ext, "."))
}
