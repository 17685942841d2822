// Package ratings loads the curated speaker ratings file.
//
// The file maps speaker slugs to a tier and an optional note. JSON, TOML and
// YAML are accepted, chosen by file extension:
//
//	{"jane-doe": {"tier": "S", "note": "Great live demos"}}
package ratings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	tierStars  = map[string]string{"S": "★★★★★", "A": "★★★★", "B": "★★★", "C": "★★"}
	tierBadges = map[string]string{"S": "Exceptional", "A": "Excellent", "B": "Good", "C": "Average"}
)

// Rating is a curated speaker quality rating.
type Rating struct {
	Slug string `json:"-" toml:"-" yaml:"-"`
	Tier string `json:"tier" toml:"tier" yaml:"tier"`
	Note string `json:"note" toml:"note" yaml:"note"`
}

// Display renders the tier with stars, e.g. "S ★★★★★".
func (r Rating) Display() string {
	return fmt.Sprintf("%s %s", r.Tier, tierStars[r.Tier])
}

// Badge returns the human-readable tier label, e.g. "Exceptional".
func (r Rating) Badge() string {
	return tierBadges[r.Tier]
}

// Decode parses ratings in the given format ("json", "toml" or "yaml").
func Decode(data []byte, format string) (map[string]Rating, error) {
	raw := make(map[string]Rating)
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &raw)
	case "toml":
		err = toml.Unmarshal(data, &raw)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported ratings format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}

	out := make(map[string]Rating, len(raw))
	for slug, r := range raw {
		if _, ok := tierStars[r.Tier]; !ok {
			return nil, fmt.Errorf("speaker %s: unknown tier %q", slug, r.Tier)
		}
		r.Slug = slug
		out[slug] = r
	}
	return out, nil
}

// Load reads the ratings file at path. A missing or corrupt file is not an
// error: it is logged and an empty map is returned.
func Load(path string, logger *slog.Logger) map[string]Rating {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read speaker ratings", "path", path, "error", err)
		}
		return map[string]Rating{}
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	out, err := Decode(data, format)
	if err != nil {
		logger.Warn("corrupt speaker ratings file, using empty ratings", "path", path, "error", err)
		return map[string]Rating{}
	}
	return out
}
