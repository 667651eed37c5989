package forensic

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

var subsetPrefixRe = regexp.MustCompile(`^[A-Z]{4,8}\+`)

// CollectFontVariants walks every page and maps normalized base font names
// to the set of subset-prefixed variant names observed. Only names carrying
// a subset prefix participate; a page that fails to load is skipped.
func CollectFontVariants(raw []byte) (variants map[string]map[string]bool, err error) {
	// The underlying parser panics on some malformed files; font analysis
	// must degrade, not abort the scan.
	defer func() {
		if r := recover(); r != nil {
			variants = nil
			err = fmt.Errorf("font scan panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for font scan: %w", err)
	}

	variants = make(map[string]map[string]bool)
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			font := page.Font(name)
			baseFont := font.BaseFont()
			if baseFont == "" || !subsetPrefixRe.MatchString(baseFont) {
				continue
			}
			base := NormalizeBaseFont(baseFont)
			if base == "" {
				continue
			}
			if variants[base] == nil {
				variants[base] = make(map[string]bool)
			}
			variants[base][baseFont] = true
		}
	}
	return variants, nil
}

// NormalizeBaseFont strips the subset prefix and any style suffix from a
// font name: "ABCDEF+Calibri-Bold" normalizes to "Calibri".
func NormalizeBaseFont(name string) string {
	base := subsetPrefixRe.ReplaceAllString(name, "")
	if idx := strings.IndexByte(base, '-'); idx > 0 {
		base = base[:idx]
	}
	if idx := strings.IndexByte(base, ','); idx > 0 {
		base = base[:idx]
	}
	return base
}

// SubsetConflicts filters the variant map down to base fonts with two or
// more distinct subset-prefixed variants, the condition for the
// MultipleFontSubsets indicator. Variant lists come back sorted.
func SubsetConflicts(variants map[string]map[string]bool) map[string][]string {
	conflicts := make(map[string][]string)
	for base, set := range variants {
		if len(set) < 2 {
			continue
		}
		names := make([]string, 0, len(set))
		for v := range set {
			names = append(names, v)
		}
		sort.Strings(names)
		conflicts[base] = names
	}
	if len(conflicts) == 0 {
		return nil
	}
	return conflicts
}
