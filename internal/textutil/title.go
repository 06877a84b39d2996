package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// TitleFromFileName derives a display title from a file path: the extension is
// dropped, underscores and dots become spaces, and the words are title-cased.
// A leading two or three digit track number ("01 - ", "07. ") is stripped.
func TitleFromFileName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("_", " ", ".", " ").Replace(stem)
	stem = stripTrackNumber(stem)
	fields := strings.Fields(stem)
	if len(fields) == 0 {
		return ""
	}
	return titleCaser.String(strings.Join(fields, " "))
}

func stripTrackNumber(value string) string {
	trimmed := strings.TrimLeft(value, " ")
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i < 2 || i > 3 {
		return value
	}
	rest := strings.TrimLeft(trimmed[i:], " -")
	if rest == "" || len(rest) == len(trimmed[i:]) {
		return value
	}
	return rest
}
