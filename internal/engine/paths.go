package engine

import (
	"fmt"
	"path/filepath"
)

// tableDir returns the on-disk directory for a table under root.
func tableDir(root, name string) string {
	return filepath.Join(root, "tables", name)
}

func metaPath(root, name string) string {
	return filepath.Join(tableDir(root, name), "meta.json")
}

// pagePath returns the path of one column page file. pageType is "base" or
// "tail".
func pagePath(root, name, pageType string, rangeIdx, col, pageID int) string {
	return filepath.Join(
		tableDir(root, name),
		pageType,
		fmt.Sprintf("range_%d", rangeIdx),
		fmt.Sprintf("col_%d_page_%d.bin", col, pageID),
	)
}
