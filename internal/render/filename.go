package render

import (
	"strings"

	"github.com/akashicode/solvesafe/internal/models"
)

// Extension is appended to every derived file name.
const Extension = ".pdf"

// FileName derives enrollment_name_batch.pdf with every character outside
// [A-Za-z0-9_] replaced by an underscore.
func FileName(meta models.Metadata) string {
	stem := meta.Enrollment + "_" + meta.Name + "_" + meta.Batch
	return SafeName(stem) + Extension
}

// SafeName replaces each rune outside [A-Za-z0-9_] with '_'.
func SafeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
