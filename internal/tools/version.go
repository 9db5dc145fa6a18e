package tools

import (
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^v?[0-9]+(\.[0-9]+)*`)

// parseVersion extracts a version from probe output. Probes print things like
// "1.66.4", "gst-launch-1.0 version 1.22.0" or "Python 3.11.4"; the last
// version-looking field of the first line wins.
func parseVersion(output string) string {
	line := firstLine(strings.TrimSpace(output))
	fields := strings.Fields(line)
	for i := len(fields) - 1; i >= 0; i-- {
		if match := versionPattern.FindString(fields[i]); match != "" {
			return strings.TrimPrefix(match, "v")
		}
	}
	return line
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
