package sitegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// separatorRe matches the "--- index.html ---" dividers the generation
// prompt asks for.
var separatorRe = regexp.MustCompile(`(?m)^---\s*([\w./-]+)\s*---\s*$`)

// ParseGeneratedFiles decodes model output into path -> content. Three
// layouts are accepted, tried in order: marker-separated files, a JSON
// object with a "files" array of {path, content}, and a flat JSON map of
// filename to content.
func ParseGeneratedFiles(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if files := parseSeparated(raw); len(files) > 0 {
		return fixFileReferences(files), nil
	}

	files := map[string]string{}
	if arr := gjson.Get(raw, "files"); arr.IsArray() {
		arr.ForEach(func(_, f gjson.Result) bool {
			path := f.Get("path").String()
			content := f.Get("content").String()
			if path != "" && content != "" {
				files[path] = content
			}
			return true
		})
	} else if root := gjson.Parse(raw); root.IsObject() {
		root.ForEach(func(key, val gjson.Result) bool {
			if val.Type == gjson.String && val.String() != "" {
				files[key.String()] = val.String()
			}
			return true
		})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files in generated output")
	}
	return fixFileReferences(files), nil
}

func parseSeparated(raw string) map[string]string {
	locs := separatorRe.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	files := map[string]string{}
	for i, loc := range locs {
		name := raw[loc[2]:loc[3]]
		start := loc[1]
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(raw[start:end])
		content = strings.TrimPrefix(content, "```html")
		content = strings.TrimPrefix(content, "```css")
		content = strings.TrimPrefix(content, "```javascript")
		content = strings.TrimPrefix(content, "```js")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
		if name != "" && content != "" {
			files[name] = content
		}
	}
	return files
}

// assetRefRe catches asset links the model sometimes nests under a
// project folder. All generated files sit next to index.html, so the
// references are flattened.
var assetRefRe = regexp.MustCompile(`(href|src)=["']\./[^"']*/([^/"']+)["']`)

func fixFileReferences(files map[string]string) map[string]string {
	html, ok := files["index.html"]
	if !ok {
		return files
	}
	files["index.html"] = assetRefRe.ReplaceAllString(html, `$1="$2"`)
	return files
}
