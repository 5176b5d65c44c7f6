package client

import (
	"slices"
	"testing"
)

func TestApplyFilesOverwritesNamedBlocks(t *testing.T) {
	vfs := map[string]string{
		"index.html": "<h1>Hi</h1>",
		"style.css":  "body { color: red; }",
	}
	reply := "Updated the colours:\n\n```style.css\nbody { color: blue; }\n```\n\nAnd a script:\n\n```js\nconsole.log(1)\n```\n"

	written := ApplyFiles(vfs, reply)

	if !slices.Equal(written, []string{"style.css"}) {
		t.Errorf("Expected only style.css written, got %v", written)
	}
	if vfs["style.css"] != "body { color: blue; }" {
		t.Errorf("Unexpected style.css %q", vfs["style.css"])
	}
	if vfs["index.html"] != "<h1>Hi</h1>" {
		t.Errorf("index.html must be untouched, got %q", vfs["index.html"])
	}
}

func TestExtractFilesLastWriterWins(t *testing.T) {
	reply := "```app.js\nfirst\n```\n```src/util.js\nutil\n```\n```app.js\nsecond\n```"

	files := ExtractFiles(reply)

	if files["app.js"] != "second" {
		t.Errorf("Expected last block to win, got %q", files["app.js"])
	}
	if files["src/util.js"] != "util" {
		t.Errorf("Expected nested path extracted, got %q", files["src/util.js"])
	}
}

func TestExtractFilesIgnoresPlainReplies(t *testing.T) {
	if files := ExtractFiles("No code here, just ```inline``` text."); len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}
