package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// HTMLName is the file WriteDir stores the table markup in.
const HTMLName = "slices.html"

// WriteDir writes every tile of set plus its HTML table into dir, creating
// the directory if needed. Tiles are skipped when the HTML inlines them.
func WriteDir(set *SliceSet, dir string, inline bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if !inline {
		for _, t := range set.Tiles {
			if err := os.WriteFile(filepath.Join(dir, t.Name), t.Raster, 0o644); err != nil {
				return fmt.Errorf("write tile %s: %w", t.Name, err)
			}
		}
	}
	if err := os.WriteFile(filepath.Join(dir, HTMLName), []byte(set.HTML), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", HTMLName, err)
	}

	logrus.WithFields(logrus.Fields{
		"dir":    dir,
		"tiles":  len(set.Tiles),
		"inline": inline,
	}).Info("Wrote slices")
	return nil
}
