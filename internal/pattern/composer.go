package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Tag is a caller-supplied name/value pair filling one or more template
// slots. Tags belong to the request that created them.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MissingTagError reports a required slot with no matching tag. This is a
// hard validation failure, never softened with a default.
type MissingTagError struct {
	Slot    string
	Pattern string
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("pattern %q requires slot %q but no matching tag was supplied", e.Pattern, e.Slot)
}

// ComposedPrompt is the deterministic result of merging patterns and tags.
// Immutable once produced.
type ComposedPrompt struct {
	Text        string
	Patterns    []string
	Categories  []string
	Tags        map[string]string
	UsedTags    []string
	Fingerprint string
}

// segmentSeparator joins rendered pattern segments.
const segmentSeparator = "\n\n----\n\n"

// Composer renders selected patterns with tag substitution. Pure function
// of its inputs plus registry state.
type Composer struct {
	reg *Registry
}

func NewComposer(reg *Registry) *Composer {
	return &Composer{reg: reg}
}

// Compose resolves every pattern name, validates required slots against
// the supplied tags and renders the patterns in caller order. Substitution
// is a single textual pass: a tag value containing a slot marker is
// inserted literally, never re-expanded. Tag supply order does not affect
// the output or the fingerprint.
func (c *Composer) Compose(patternNames []string, tags []Tag) (*ComposedPrompt, error) {
	tagMap := tagsToMap(tags)

	patterns := make([]Pattern, 0, len(patternNames))
	for _, name := range patternNames {
		p, err := c.reg.Get(name)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	for _, p := range patterns {
		for _, slot := range p.Slots {
			if _, ok := tagMap[slot]; !ok {
				return nil, &MissingTagError{Slot: slot, Pattern: p.Name}
			}
		}
	}

	replacer := buildReplacer(tagMap)
	used := usedTagNames(patterns, tagMap)

	segments := make([]string, 0, len(patterns))
	names := make([]string, 0, len(patterns))
	categories := make([]string, 0, len(patterns))
	for _, p := range patterns {
		segments = append(segments, renderSegment(p, replacer))
		names = append(names, p.Name)
		categories = append(categories, p.Category)
	}

	return &ComposedPrompt{
		Text:        strings.Join(segments, segmentSeparator),
		Patterns:    names,
		Categories:  categories,
		Tags:        tagMap,
		UsedTags:    used,
		Fingerprint: Fingerprint(patternNames, tags),
	}, nil
}

func renderSegment(p Pattern, replacer *strings.Replacer) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Pattern: %s\nFamily: %s\n\n", p.Name, p.Category)
	sb.WriteString(replacer.Replace(p.Template))
	return sb.String()
}

// buildReplacer maps {tag} markers to values. Pairs are added in sorted
// name order so construction is deterministic; strings.Replacer performs
// one non-recursive pass over the template.
func buildReplacer(tagMap map[string]string) *strings.Replacer {
	names := make([]string, 0, len(tagMap))
	for name := range tagMap {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", tagMap[name])
	}
	return strings.NewReplacer(pairs...)
}

// usedTagNames returns the sorted tag names consumed by at least one
// selected pattern. Unused tags are not an error but contribute nothing
// to the rendered text.
func usedTagNames(patterns []Pattern, tagMap map[string]string) []string {
	seen := make(map[string]struct{})
	for _, p := range patterns {
		for _, slot := range p.Slots {
			if _, ok := tagMap[slot]; ok {
				seen[slot] = struct{}{}
			}
		}
		for name := range tagMap {
			if strings.Contains(p.Template, "{"+name+"}") {
				seen[name] = struct{}{}
			}
		}
	}
	used := make([]string, 0, len(seen))
	for name := range seen {
		used = append(used, name)
	}
	sort.Strings(used)
	return used
}

func tagsToMap(tags []Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		m[name] = strings.TrimSpace(t.Value)
	}
	return m
}

// Fingerprint is a stable content hash over the sorted pattern-name list
// and the sorted tag pairs. Identical inputs in any supply order yield the
// same fingerprint.
func Fingerprint(patternNames []string, tags []Tag) string {
	names := make([]string, 0, len(patternNames))
	for _, n := range patternNames {
		names = append(names, strings.TrimSpace(n))
	}
	sort.Strings(names)

	tagMap := tagsToMap(tags)
	tagNames := make([]string, 0, len(tagMap))
	for name := range tagMap {
		tagNames = append(tagNames, name)
	}
	sort.Strings(tagNames)

	h := sha256.New()
	for _, n := range names {
		fmt.Fprintf(h, "p:%q;", n)
	}
	for _, name := range tagNames {
		fmt.Fprintf(h, "t:%q=%q;", name, tagMap[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}
