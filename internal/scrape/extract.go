package scrape

import (
	"fmt"
	"strings"
)

// singleEntryJS builds an expression that reads every configured field from
// the current page, returning null for anything that is not there.
func singleEntryJS(fields []FieldSpec) string {
	var b strings.Builder
	b.WriteString("(() => {\n")
	b.WriteString("  const pick = (sel, idx) => {\n")
	b.WriteString("    const el = document.querySelectorAll(sel)[idx];\n")
	b.WriteString("    return el ? el.innerText.trim() : null;\n")
	b.WriteString("  };\n")
	b.WriteString("  return {\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "    %q: pick(%q, %d),\n", f.Name, f.Selector, f.Index)
	}
	b.WriteString("  };\n")
	b.WriteString("})()")
	return b.String()
}

// cardEntriesJS builds an expression that reads the configured fields from
// each element matching cardSel, one result object per card.
func cardEntriesJS(cardSel string, fields []FieldSpec) string {
	var b strings.Builder
	b.WriteString("(() => {\n")
	b.WriteString("  const out = [];\n")
	fmt.Fprintf(&b, "  document.querySelectorAll(%q).forEach((card) => {\n", cardSel)
	b.WriteString("    const pick = (sel, idx) => {\n")
	b.WriteString("      const el = card.querySelectorAll(sel)[idx];\n")
	b.WriteString("      return el ? el.innerText.trim() : null;\n")
	b.WriteString("    };\n")
	b.WriteString("    out.push({\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "      %q: pick(%q, %d),\n", f.Name, f.Selector, f.Index)
	}
	b.WriteString("    });\n")
	b.WriteString("  });\n")
	b.WriteString("  return out;\n")
	b.WriteString("})()")
	return b.String()
}

// normalizeEntry maps raw extraction results onto the configured field set,
// substituting the sentinel for anything the page did not yield. Field-level
// misses are deliberately not errors.
func normalizeEntry(fields []FieldSpec, raw map[string]string) Entry {
	entry := make(Entry, len(fields))
	for _, f := range fields {
		v := strings.TrimSpace(raw[f.Name])
		if v == "" {
			v = NotFound
		}
		entry[f.Name] = v
	}
	return entry
}
