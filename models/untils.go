package models

import (
	"strings"
	"unicode"

	"github.com/rs/xid"
)

// generateSlug 根据名称生成唯一的 URL 片段，例如 "dune-cn8v0k2p1q3c73d5ic4g"
func generateSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		return xid.New().String()
	}
	return base + "-" + xid.New().String()
}
