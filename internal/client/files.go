package client

import (
	"regexp"
	"slices"
	"strings"
)

// A fenced block whose label looks like a file name, e.g. ```style.css.
var fencedFilePattern = regexp.MustCompile("(?s)```([A-Za-z0-9_./-]*[A-Za-z0-9_-]\\.[A-Za-z0-9]+)[ \\t]*\\r?\\n(.*?)```")

// ExtractFiles returns the files fenced in an assistant answer. A later block
// for the same name replaces an earlier one.
func ExtractFiles(text string) map[string]string {
	files := make(map[string]string)
	for _, match := range fencedFilePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimPrefix(match[1], "./")
		files[name] = strings.TrimSuffix(match[2], "\n")
	}
	return files
}

// ApplyFiles overwrites same-named entries of vfs and adds unseen ones. It
// reports the names it wrote.
func ApplyFiles(vfs map[string]string, text string) []string {
	extracted := ExtractFiles(text)
	written := make([]string, 0, len(extracted))
	for name, content := range extracted {
		vfs[name] = content
		written = append(written, name)
	}
	slices.Sort(written)
	return written
}
