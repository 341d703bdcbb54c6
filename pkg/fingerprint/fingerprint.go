// Package fingerprint hashes records and record pairs so repeat imports and repeat ambiguities can be recognised
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// volatileFields change between fetches of the same record and never take part in a fingerprint.
var volatileFields = map[string]bool{
	"created":     true,
	"modified":    true,
	"lastUpdated": true,
	"score":       true,
}

// Generate returns the SHA256 of the canonical JSON of data, ignoring volatile fields.
func Generate(data map[string]any) string {
	return GenerateWithExclusions(data, volatileFields)
}

// GenerateWithExclusions hashes data without the given top-level or dot-path fields.
func GenerateWithExclusions(data map[string]any, excludeFields map[string]bool) string {
	var b strings.Builder
	canonicalize(&b, data, excludeFields, "")
	return hash(b.String())
}

// Pair identifies a (provider, external record, internal record) triple independent of field values.
func Pair(providerSystemName, externalID string, internalIDs ...string) string {
	ids := append([]string(nil), internalIDs...)
	sort.Strings(ids)
	return hash(strings.Join(append([]string{providerSystemName, externalID}, ids...), "\x1f"))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func canonicalize(b *strings.Builder, data any, excludeFields map[string]bool, path string) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		first := true
		for _, k := range keys {
			fieldPath := k
			if path != "" {
				fieldPath = path + "." + k
			}
			if excluded(fieldPath, excludeFields) {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			keyJSON, _ := json.Marshal(k)
			b.Write(keyJSON)
			b.WriteByte(':')
			canonicalize(b, v[k], excludeFields, fieldPath)
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item, excludeFields, path)
		}
		b.WriteByte(']')
	default:
		out, _ := json.Marshal(v)
		b.Write(out)
	}
}

func excluded(fieldPath string, excludeFields map[string]bool) bool {
	if excludeFields[fieldPath] {
		return true
	}
	for field := range excludeFields {
		if strings.HasPrefix(fieldPath, field+".") {
			return true
		}
	}
	return false
}
