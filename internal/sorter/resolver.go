package sorter

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/turbosort/turbosort/internal/config"
)

// years between 1900 and 2099, leftmost match wins
var yearPattern = regexp.MustCompile(`(19\d{2}|20\d{2})`)

var ErrEmptyDestination = errors.New("empty destination in marker")

// Resolver turns a marker's declared destination subpath into a concrete
// directory under the destination root. Resolution is pure: no filesystem
// access, no hidden state. Directory creation is the caller's job.
type Resolver struct {
	destRoot    string
	yearPrefix  bool
	driveSuffix string // empty when disabled
}

func NewResolver(cfg *config.Config) *Resolver {
	suffix := ""
	if cfg.DriveSuffix {
		suffix = cfg.DriveSuffixName
	}
	return &Resolver{
		destRoot:    cfg.DestDir,
		yearPrefix:  cfg.YearPrefix,
		driveSuffix: suffix,
	}
}

// ExtractYear returns the leftmost 4-digit year in s, or "" if none.
func ExtractYear(s string) string {
	return yearPattern.FindString(s)
}

// Resolve maps the marker destination to an absolute target directory.
func (r *Resolver) Resolve(markerDest string) (string, error) {
	dest := strings.TrimSpace(markerDest)
	if dest == "" {
		return "", ErrEmptyDestination
	}
	dest = filepath.Clean(filepath.FromSlash(dest))

	parts := []string{r.destRoot}
	if r.yearPrefix {
		if year := ExtractYear(dest); year != "" {
			parts = append(parts, year)
		} else {
			// not fatal, just lands without the year shard
			slog.Warn("no year found in destination path, using standard path", "dest", dest)
		}
	}
	parts = append(parts, dest)
	if r.driveSuffix != "" {
		parts = append(parts, r.driveSuffix)
	}

	target := filepath.Clean(filepath.Join(parts...))

	// a destination like "../../etc" must never escape the root
	if target != r.destRoot && !strings.HasPrefix(target, r.destRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("destination %q escapes destination root", markerDest)
	}

	return target, nil
}
