package cache

import (
	"net/url"
	"strings"
	"sync"
	"testing"
)

func TestDefaultKeyer_Format(t *testing.T) {
	keyer := NewDefaultKeyer()

	key, err := keyer.Key("get", "/risks", map[string]any{"domain": "example.com"})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	if !strings.HasPrefix(key, "GET:/risks:") {
		t.Errorf("Key() = %q, want prefix %q", key, "GET:/risks:")
	}
	hash := strings.TrimPrefix(key, "GET:/risks:")
	if len(hash) != 32 {
		t.Errorf("hash length = %d, want 32", len(hash))
	}
}

func TestDefaultKeyer_Deterministic(t *testing.T) {
	keyer := NewDefaultKeyer()

	a := map[string]any{"domain": "example.com", "page_size": 100, "sort_by": "name"}
	b := map[string]any{"sort_by": "name", "domain": "example.com", "page_size": 100}

	keyA, err := keyer.Key("GET", "/risks", a)
	if err != nil {
		t.Fatalf("Key(a) error = %v", err)
	}
	for i := 0; i < 50; i++ {
		keyB, err := keyer.Key("GET", "/risks", b)
		if err != nil {
			t.Fatalf("Key(b) error = %v", err)
		}
		if keyA != keyB {
			t.Fatalf("keys differ for reordered params: %q vs %q", keyA, keyB)
		}
	}
}

func TestDefaultKeyer_NilAndEmptyParamsMatch(t *testing.T) {
	keyer := NewDefaultKeyer()

	nilKey, _ := keyer.Key("GET", "/vendors", nil)
	emptyKey, _ := keyer.Key("GET", "/vendors", map[string]any{})

	if nilKey != emptyKey {
		t.Errorf("nil params key %q != empty params key %q", nilKey, emptyKey)
	}
}

func TestDefaultKeyer_Distinguishes(t *testing.T) {
	keyer := NewDefaultKeyer()
	base, _ := keyer.Key("GET", "/risks", map[string]any{"domain": "a.com"})

	tests := []struct {
		name   string
		method string
		path   string
		params map[string]any
	}{
		{"different method", "POST", "/risks", map[string]any{"domain": "a.com"}},
		{"different path", "GET", "/available_risks", map[string]any{"domain": "a.com"}},
		{"different value", "GET", "/risks", map[string]any{"domain": "b.com"}},
		{"extra param", "GET", "/risks", map[string]any{"domain": "a.com", "page": 2}},
		{"different type", "GET", "/risks", map[string]any{"domain": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyer.Key(tt.method, tt.path, tt.params)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if key == base {
				t.Errorf("Key(%s %s %v) collided with base key", tt.method, tt.path, tt.params)
			}
		})
	}
}

func TestDefaultKeyer_SliceOrderMatters(t *testing.T) {
	keyer := NewDefaultKeyer()

	k1, _ := keyer.Key("GET", "/vendors", map[string]any{"labels": []any{"a", "b"}})
	k2, _ := keyer.Key("GET", "/vendors", map[string]any{"labels": []any{"b", "a"}})

	if k1 == k2 {
		t.Error("slice order should affect the key")
	}
}

func TestDefaultKeyer_StringCollections(t *testing.T) {
	keyer := NewDefaultKeyer()

	fromAny, _ := keyer.Key("GET", "/vendors", map[string]any{"labels": []any{"x", "y"}})
	fromStrings, _ := keyer.Key("GET", "/vendors", map[string]any{"labels": []string{"x", "y"}})
	if fromAny != fromStrings {
		t.Errorf("[]string and []any with same elements should match: %q vs %q", fromStrings, fromAny)
	}

	nested1, _ := keyer.Key("GET", "/vendors", map[string]any{"q": url.Values{"b": {"2"}, "a": {"1"}}})
	nested2, _ := keyer.Key("GET", "/vendors", map[string]any{"q": map[string]any{"a": []any{"1"}, "b": []any{"2"}}})
	if nested1 != nested2 {
		t.Errorf("url.Values should canonicalize like the equivalent map: %q vs %q", nested1, nested2)
	}
}

func TestDefaultKeyer_UnsupportedValue(t *testing.T) {
	keyer := NewDefaultKeyer()

	_, err := keyer.Key("GET", "/risks", map[string]any{"fn": func() {}})
	if err == nil {
		t.Error("Key() with unmarshalable param should error")
	}
}

func TestDefaultKeyer_LongPathIsHashed(t *testing.T) {
	keyer := NewDefaultKeyer()
	long := "/bulk/hostnames/" + strings.Repeat("a", 500)

	key, err := keyer.Key("GET", long, nil)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if len(key) > MaxKeyLength {
		t.Errorf("len(key) = %d, want <= %d", len(key), MaxKeyLength)
	}
	if !strings.HasPrefix(key, KeyPrefix("GET", long)) || !strings.HasPrefix(key, "GET:#") {
		t.Errorf("Key() = %q, want hashed path prefix", key)
	}

	other, _ := keyer.Key("GET", long+"b", nil)
	if other == key {
		t.Error("different long paths produced the same key")
	}
	short, _ := keyer.Key("GET", "/risks", nil)
	if !strings.HasPrefix(short, "GET:/risks:") {
		t.Errorf("short path key = %q, want readable path", short)
	}
}

func TestGenerateKey_MatchesDefaultKeyer(t *testing.T) {
	params := map[string]any{"hostname": "www.example.com"}

	want, _ := NewDefaultKeyer().Key("GET", "/domain", params)
	got, err := GenerateKey("GET", "/domain", params)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if got != want {
		t.Errorf("GenerateKey() = %q, want %q", got, want)
	}
}

func TestDefaultKeyer_Concurrent(t *testing.T) {
	keyer := NewDefaultKeyer()
	params := map[string]any{"a": 1, "b": []any{"x", map[string]any{"c": true}}}
	want, _ := keyer.Key("GET", "/risks", params)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := keyer.Key("GET", "/risks", params)
			if err != nil || got != want {
				t.Errorf("concurrent Key() = (%q, %v), want %q", got, err, want)
			}
		}()
	}
	wg.Wait()
}
