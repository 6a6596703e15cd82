package facts

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"voice_agent/internal/model"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// extractJSONObject cuts the outermost JSON object out of a model reply,
// dropping markdown fences and any prose around it.
func extractJSONObject(s string) (string, bool) {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// repairJSON fixes the mistakes models make most often: trailing commas and
// typographic quotes.
func repairJSON(s string) string {
	s = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'").Replace(s)
	return trailingComma.ReplaceAllString(s, "$1")
}

// ParseFacts converts an extraction reply into a FactSet. Anything that is
// not a JSON object yields an empty set.
func ParseFacts(reply string) model.FactSet {
	var out model.FactSet
	raw, ok := extractJSONObject(reply)
	if !ok {
		return out
	}

	var obj map[string]any
	if err := sonic.UnmarshalString(raw, &obj); err != nil {
		if err := sonic.UnmarshalString(repairJSON(raw), &obj); err != nil {
			return out
		}
	}

	// map order is random; keep a stable order by walking the raw text
	for _, key := range orderedKeys(raw, obj) {
		if v, ok := factValue(obj[key]); ok {
			out.Set(model.NormalizeFactKey(key), v)
		}
	}
	return out
}

func factValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		if t {
			return model.FactTrue, true
		}
		return "", false
	case []any:
		var parts []string
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any:
				continue
			}
			if s, ok := factValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), len(parts) > 0
	default:
		return "", false
	}
}

// orderedKeys returns the keys of obj in the order they first appear in raw,
// falling back to the remaining keys sorted for determinism.
func orderedKeys(raw string, obj map[string]any) []string {
	type pos struct {
		key string
		at  int
	}
	var found []pos
	for k := range obj {
		at := strings.Index(raw, strconv.Quote(k))
		if at == -1 {
			at = len(raw)
		}
		found = append(found, pos{k, at})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].at != found[j].at {
			return found[i].at < found[j].at
		}
		return found[i].key < found[j].key
	})
	keys := make([]string, len(found))
	for i, p := range found {
		keys[i] = p.key
	}
	return keys
}
