package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

const feedFilePerm = 0o644

// Write persists the document to "<dir>/dual_feed_<date>.json" and returns
// the written path.
func Write(doc domain.DualFeed, dir string) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dual feed: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("dual_feed_%s.json", doc.Date))

	if err := os.WriteFile(path, data, feedFilePerm); err != nil {
		return "", fmt.Errorf("write dual feed: %w", err)
	}

	return path, nil
}
