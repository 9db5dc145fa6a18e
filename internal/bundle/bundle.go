// Package bundle finds installer artifacts in the resources directory shipped
// with the application.
package bundle

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/text/cases"
)

// WheelExt is the extension of a python wheel.
const WheelExt = ".whl"

// Rule selects artifacts by extension and name. Anchored rules require the
// name to start with the query; unanchored rules accept it anywhere.
type Rule struct {
	Ext      string
	Anchored bool
}

// PackageRule matches installer packages with ext by substring.
func PackageRule(ext string) Rule {
	return Rule{Ext: ext}
}

// WheelRule matches wheels by prefix.
func WheelRule() Rule {
	return Rule{Ext: WheelExt, Anchored: true}
}

var fold = cases.Fold()

// Match reports whether name is accepted by r for query. Comparison is
// case-insensitive.
func (r Rule) Match(name, query string) bool {
	n := fold.String(name)
	if !strings.HasSuffix(n, fold.String(r.Ext)) {
		return false
	}
	q := fold.String(query)
	if r.Anchored {
		return strings.HasPrefix(n, q)
	}
	return strings.Contains(n, q)
}

// Find returns the first regular file in dir, in listing order, accepted by
// rule for query. A missing or unreadable dir yields no match.
func Find(dir, query string, rule Rule) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if rule.Match(entry.Name(), query) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// Digest returns the hex BLAKE3 digest of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
