// Package tooldisplay turns raw tool invocations into the display model
// the terminal UI renders: a category, an icon key, and a short human
// label, plus the grouping of invocations into category sections.
//
// Everything here is a pure function over the current part list. Nothing
// is cached between render passes, which is what keeps the grouped view
// stable and flicker-free: identical input always produces identical
// output.
package tooldisplay

import (
	"fmt"
	"path"
	"strings"
)

// Category is the display bucket a tool invocation lands in.
type Category string

// Display categories, rendered as "Explored", "Searched", "Browser",
// "Terminal", and "Actions" section headers.
const (
	CategoryExplore  Category = "explore"
	CategorySearch   Category = "search"
	CategoryBrowser  Category = "browser"
	CategoryTerminal Category = "terminal"
	CategoryOther    Category = "other"
)

// Truncation limits for generated labels.
const (
	maxQueryLabel   = 30 // search queries
	maxCommandLabel = 40 // shell commands
)

// Info is the presentation data for one tool invocation.
type Info struct {
	Icon     string
	Label    string
	Category Category
}

// Classify maps a raw tool invocation to its display info. It is total:
// unknown tool names fall back to CategoryOther with the tool name's
// separators replaced by spaces, and missing input fields degrade to
// empty-string substitution. No input can make it fail.
func Classify(toolName string, input map[string]any) Info {
	switch toolName {
	case "read_file":
		label := "Read " + baseName(stringField(input, "target_file", "path", "file_path"))
		if offset, ok := intField(input, "offset"); ok {
			if limit, ok := intField(input, "limit"); ok {
				label += fmt.Sprintf(" L%d-%d", offset, offset+limit)
			}
		}
		return Info{Icon: "file", Label: strings.TrimSpace(label), Category: CategoryExplore}

	case "list_files", "list_dir", "ls":
		target := baseName(stringField(input, "target_directory", "path", "directory"))
		if target == "" {
			return Info{Icon: "folder", Label: "List files", Category: CategoryExplore}
		}
		return Info{Icon: "folder", Label: "List " + target, Category: CategoryExplore}

	case "glob", "file_search":
		return Info{
			Icon:     "folder",
			Label:    strings.TrimSpace("Find " + stringField(input, "pattern", "glob_pattern", "query")),
			Category: CategoryExplore,
		}

	case "get_file_info":
		return Info{
			Icon:     "file",
			Label:    strings.TrimSpace("Inspect " + baseName(stringField(input, "target_file", "path"))),
			Category: CategoryExplore,
		}

	case "grep", "grep_search", "codebase_search", "knowledge_search":
		query := truncate(stringField(input, "query", "pattern"), maxQueryLabel)
		return Info{Icon: "search", Label: `Search "` + query + `"`, Category: CategorySearch}

	case "web_search":
		query := truncate(stringField(input, "query", "search_term"), maxQueryLabel)
		return Info{Icon: "search", Label: `Search web "` + query + `"`, Category: CategorySearch}

	case "web_fetch", "open_url", "browse":
		return Info{
			Icon:     "globe",
			Label:    strings.TrimSpace("Open " + hostOf(stringField(input, "url", "target_url"))),
			Category: CategoryBrowser,
		}

	case "screenshot":
		return Info{Icon: "globe", Label: "Screenshot", Category: CategoryBrowser}

	case "execute_command", "run_terminal_cmd", "shell":
		command := truncate(strings.TrimSpace(stringField(input, "command", "cmd")), maxCommandLabel)
		if command == "" {
			return Info{Icon: "terminal", Label: "Run command", Category: CategoryTerminal}
		}
		return Info{Icon: "terminal", Label: command, Category: CategoryTerminal}

	case "write_file", "create_file":
		return Info{
			Icon:     "pencil",
			Label:    strings.TrimSpace("Write " + baseName(stringField(input, "target_file", "path", "file_path"))),
			Category: CategoryOther,
		}

	case "edit_file", "apply_patch", "search_replace":
		return Info{
			Icon:     "pencil",
			Label:    strings.TrimSpace("Edit " + baseName(stringField(input, "target_file", "path", "file_path"))),
			Category: CategoryOther,
		}

	case "delete_file":
		return Info{
			Icon:     "trash",
			Label:    strings.TrimSpace("Delete " + baseName(stringField(input, "target_file", "path"))),
			Category: CategoryOther,
		}

	default:
		return Info{Icon: "tool", Label: fallbackLabel(toolName), Category: CategoryOther}
	}
}

// fallbackLabel makes an unknown tool name readable: separators become
// spaces, nothing else changes.
func fallbackLabel(toolName string) string {
	label := strings.NewReplacer("_", " ", "-", " ").Replace(toolName)
	return strings.TrimSpace(label)
}

// stringField returns the first present string field among keys, or "".
func stringField(input map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := input[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// intField reads a numeric field. JSON decoding produces float64 for all
// numbers, but tolerate int as well for callers constructing input maps
// directly.
func intField(input map[string]any, key string) (int, bool) {
	switch v := input[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// baseName returns the final path element, or "" for empty input.
func baseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}

// hostOf extracts the host portion of a URL-ish string for display.
func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

// truncate cuts s at max runes, appending an ellipsis when it was longer.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
