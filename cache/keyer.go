package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Keyer generates deterministic cache keys from request parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from method, path and query parameters.
	Key(method, path string, params map[string]any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: KeyPrefix(method, path) + hash
// where hash is the first 32 characters of SHA-256(canonical JSON(params)).
// Nil and empty params produce the same key.
func (k *DefaultKeyer) Key(method, path string, params map[string]any) (string, error) {
	canonical, err := canonicalizeParams(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	hash := sha256.Sum256(canonical)
	key := KeyPrefix(method, path) + hex.EncodeToString(hash[:16])

	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// GenerateKey derives a cache key with the default keyer.
func GenerateKey(method, path string, params map[string]any) (string, error) {
	return defaultKeyer.Key(method, path, params)
}

var defaultKeyer = NewDefaultKeyer()

// paramsHashLen is the length of the params hash that ends every key.
const paramsHashLen = 32

// KeyPrefix returns the leading part shared by every key of method and path,
// "<METHOD>:<path>:". A path too long to fit within MaxKeyLength is replaced
// by "#" and its hex SHA-256 digest.
func KeyPrefix(method, path string) string {
	method = strings.ToUpper(method)
	if len(method)+len(path)+2+paramsHashLen > MaxKeyLength {
		sum := sha256.Sum256([]byte(path))
		path = "#" + hex.EncodeToString(sum[:])
	}
	return method + ":" + path + ":"
}

func canonicalizeParams(params map[string]any) ([]byte, error) {
	if len(params) == 0 {
		return []byte("{}"), nil
	}
	return canonicalize(params)
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return canonicalizeMap(m)
	case url.Values:
		m := make(map[string]any, len(val))
		for k, vs := range val {
			m[k] = stringsToAny(vs)
		}
		return canonicalizeMap(m)
	case []any:
		return canonicalizeSlice(val)
	case []string:
		return canonicalizeSlice(stringsToAny(val))
	default:
		return json.Marshal(v)
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
