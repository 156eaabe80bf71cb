package fetch

import (
	"github.com/PaesslerAG/jsonpath"
)

// Lookup is one step of an ordered fallback chain: a named source
// document and the jsonpath to try against it. Chains replace the
// original scripts' scattered `a.get(x) or b.get(y)` patterns with an
// explicit, documented evaluation order per output field.
type Lookup struct {
	Source string
	Path   string
}

// Resolve evaluates the chain in order against the named JSON documents
// and returns the first non-null result. Missing documents and failed
// paths just advance the chain.
func Resolve(docs map[string]interface{}, chain []Lookup) (interface{}, bool) {
	for _, l := range chain {
		doc, ok := docs[l.Source]
		if !ok || doc == nil {
			continue
		}
		val, err := jsonpath.Get(l.Path, doc)
		if err != nil {
			continue
		}
		// jsonpath is never clear about whether it returns a list of one
		// answer or a single answer; keep the first one if any.
		if list, ok := val.([]interface{}); ok {
			if len(list) == 0 {
				continue
			}
			val = list[0]
		}
		if val == nil {
			continue
		}
		return val, true
	}
	return nil, false
}
