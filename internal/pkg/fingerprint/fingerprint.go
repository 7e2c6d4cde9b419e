// Package fingerprint turns an inbound mutation request into a canonical,
// deterministic hash. The hash binds an idempotency key to one specific
// payload and doubles as a cache key component, so identical logical
// requests must always produce identical output.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// List-valued fields whose order carries no meaning. They are sorted so that
// semantically identical payloads with reordered lists hash identically.
var unorderedListFields = map[string]struct{}{
	"option_ids": {},
	"optionIds":  {},
}

// Fingerprint builds the canonical {method, path, body, route} object,
// serializes it with a stable encoding and hashes it with SHA-256.
// The returned endpoint is "<METHOD> <path-without-query>".
func Fingerprint(method, path string, body map[string]any, route map[string]string) (endpoint, hash string) {
	method = strings.ToUpper(strings.TrimSpace(method))
	cleanPath := path
	if i := strings.IndexByte(cleanPath, '?'); i >= 0 {
		cleanPath = cleanPath[:i]
	}
	endpoint = method + " " + cleanPath

	canonical := map[string]any{
		"method": method,
		"path":   cleanPath,
		"body":   normalizeValue(body, ""),
		"route":  normalizeRoute(route),
	}

	// encoding/json marshals map keys in sorted order, which gives the
	// stable, locale-independent encoding the hash depends on.
	data, err := json.Marshal(canonical)
	if err != nil {
		// Only non-encodable values (NaN etc.) can land here; they are
		// filtered out by normalizeValue, so this is unreachable in practice.
		data = []byte(fmt.Sprintf("%#v", canonical))
	}

	sum := sha256.Sum256(data)
	return endpoint, hex.EncodeToString(sum[:])
}

func normalizeRoute(route map[string]string) map[string]any {
	out := make(map[string]any, len(route))
	for k, v := range route {
		out[k] = normalizeValue(v, k)
	}
	return out
}

// normalizeValue recursively canonicalizes a decoded JSON value:
// empty strings and nulls collapse to null, numeric strings are coerced to
// numbers, and unordered list fields are sorted ascending.
func normalizeValue(v any, key string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		if n, ok := coerceNumeric(val); ok {
			return n
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item, k)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item, "")
		}
		if _, unordered := unorderedListFields[key]; unordered {
			sortCanonicalList(out)
		}
		return out
	default:
		return val
	}
}

func coerceNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sortCanonicalList(list []any) {
	sort.Slice(list, func(i, j int) bool {
		return listSortKey(list[i]) < listSortKey(list[j])
	})
}

// Numbers sort numerically via a fixed-width key; everything else falls back
// to its JSON form. Deterministic for any mix of element types.
func listSortKey(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%024.6f", f)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
