package project

import (
	"path/filepath"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortNatural orders file paths the way a file manager would: directories
// first by name, numbers by value and letters without regard to case.
func SortNatural(paths []string) {
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	slices.SortStableFunc(paths, func(a, b string) int {
		if d := c.CompareString(filepath.Dir(a), filepath.Dir(b)); d != 0 {
			return d
		}
		return c.CompareString(filepath.Base(a), filepath.Base(b))
	})
}
