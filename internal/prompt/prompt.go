// Package prompt composes the system prompt sent with every chat request.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const basePrompt = "You are an expert Senior Web Developer. " +
	"The user is working in a multi-file web IDE. " +
	"Always return complete file replacements in markdown fenced blocks where the fence label is the filename."

type Builder struct {
	counter Counter
	budget  int
}

// NewBuilder returns a builder that keeps the rendered project files under
// budget tokens. A budget of zero disables trimming.
func NewBuilder(counter Counter, budget int) *Builder {
	if counter == nil {
		counter = EstimateCounter{}
	}
	return &Builder{counter: counter, budget: budget}
}

func (b *Builder) Build(vfs map[string]string, customPrompt string) string {
	prompt := basePrompt
	if custom := strings.TrimSpace(customPrompt); custom != "" {
		prompt = fmt.Sprintf("%s\n\nUser system prompt:\n%s", prompt, custom)
	}
	return fmt.Sprintf("%s\n\nCurrent project files:\n%s", prompt, b.renderFiles(vfs))
}

func (b *Builder) renderFiles(vfs map[string]string) string {
	files := make(map[string]string, len(vfs))
	for name, content := range vfs {
		files[name] = content
	}
	omitted := make(map[string]bool)

	rendered := render(files)
	for b.budget > 0 && b.counter.Count(rendered) > b.budget {
		name, ok := largestFile(files, omitted)
		if !ok {
			break
		}
		files[name] = fmt.Sprintf("[omitted: %d tokens]", b.counter.Count(files[name]))
		omitted[name] = true
		rendered = render(files)
	}
	return rendered
}

func largestFile(files map[string]string, omitted map[string]bool) (string, bool) {
	names := make([]string, 0, len(files))
	for name := range files {
		if !omitted[name] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Slice(names, func(i, j int) bool {
		if len(files[names[i]]) != len(files[names[j]]) {
			return len(files[names[i]]) > len(files[names[j]])
		}
		return names[i] < names[j]
	})
	return names[0], true
}

func render(files map[string]string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(files); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
