package blocks

import (
	"fmt"
	"sort"
	"strings"
)

// Data is the open-ended field mapping extracted for a block.
type Data map[string]any

const numSuffix = "_num"

var nullStrings = map[string]bool{"": true, "null": true, "none": true, "n/a": true, "na": true, "nil": true}

// IsNull reports whether v carries no information.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return nullStrings[strings.ToLower(strings.TrimSpace(x))]
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// Merge folds the sources in order. For every key the first non-null value
// wins; later sources only fill keys that are still absent or null.
func Merge(sources ...Data) Data {
	out := Data{}
	for _, src := range sources {
		for _, k := range src.Keys() {
			v := src[k]
			if IsNull(v) {
				continue
			}
			if existing, ok := out[k]; ok && !IsNull(existing) {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// Aggregate merges the data of all non-invalid blocks in the given order and
// adds parsed "<key>_num" companions for values that read as numbers.
func Aggregate(bs []Block) Data {
	sources := make([]Data, 0, len(bs))
	for _, b := range bs {
		if b.Quality.IsInvalid {
			continue
		}
		sources = append(sources, b.Data)
	}
	return WithNumeric(Merge(sources...))
}

// WithNumeric returns a copy of d with numeric companions added where missing.
func WithNumeric(d Data) Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, k := range d.Keys() {
		if strings.HasSuffix(k, numSuffix) {
			continue
		}
		if _, ok := out[k+numSuffix]; ok {
			continue
		}
		if _, isBool := d[k].(bool); isBool {
			continue
		}
		if n, ok := ParseNumeric(d[k]); ok {
			out[k+numSuffix] = n
		}
	}
	return out
}

// Keys returns the keys of d in sorted order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Number returns the first key among keys that resolves to a number, preferring
// the parsed companion of each key over its raw value.
func (d Data) Number(keys ...string) (float64, string, bool) {
	for _, k := range keys {
		if v, ok := d[k+numSuffix]; ok {
			if n, ok := ParseNumeric(v); ok {
				return n, k, true
			}
		}
		if v, ok := d[k]; ok {
			if _, isBool := v.(bool); isBool {
				continue
			}
			if n, ok := ParseNumeric(v); ok {
				return n, k, true
			}
		}
	}
	return 0, "", false
}

func (d Data) Text(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || IsNull(v) {
			continue
		}
		return fmt.Sprint(v), true
	}
	return "", false
}

var falsyStrings = map[string]bool{
	"no": true, "false": true, "0": true, "absent": true, "missing": true,
	"not available": true, "not established": true, "not applicable": true,
}

// Truthy reports whether key holds an affirmative value.
func (d Data) Truthy(key string) bool {
	v, ok := d[key]
	if !ok || IsNull(v) {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return !falsyStrings[strings.ToLower(strings.TrimSpace(x))]
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return true
}
