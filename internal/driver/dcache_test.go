package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskCachePutGet(t *testing.T) {
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	key := cacheKey([]byte(`{"type":"Program","body":[]}`), opts)
	in := FileSummary{Schema: summarySchemaVersion, Path: "a.json", Functions: []FunctionSummary{{Name: "f"}}}
	if err := cache.Put(key, &in); err != nil {
		t.Fatal(err)
	}
	var out FileSummary
	ok, err := cache.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if out.Path != "a.json" || len(out.Functions) != 1 || out.Functions[0].Name != "f" {
		t.Fatalf("out = %+v", out)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if ok, err := cache.Get(key, &out); err != nil || ok {
		t.Fatalf("after DropAll Get = %v, %v", ok, err)
	}
	if _, err := os.Stat(cache.Dir()); err != nil {
		t.Fatalf("cache dir is gone: %v", err)
	}
}

func TestDiskCacheSchemaMismatchIsMiss(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := cacheKey([]byte("x"), DefaultOptions())
	if err := cache.Put(key, &FileSummary{Schema: summarySchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}
	var out FileSummary
	if ok, err := cache.Get(key, &out); err != nil || ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	content := []byte("same")
	base := DefaultOptions()
	salted := base
	salted.CacheSalt = "abc"
	noProp := base
	noProp.Features.ConstantPropagation = false
	keys := map[Digest]string{}
	for name, opts := range map[string]Options{"base": base, "salted": salted, "noProp": noProp} {
		k := cacheKey(content, opts)
		if prev, dup := keys[k]; dup {
			t.Fatalf("%s and %s share a key", prev, name)
		}
		keys[k] = name
	}
	if cacheKey(content, base) != cacheKey(content, DefaultOptions()) {
		t.Fatal("key is not deterministic")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *DiskCache
	if err := cache.Put(Digest{}, &FileSummary{}); err != nil {
		t.Fatal(err)
	}
	if ok, err := cache.Get(Digest{}, &FileSummary{}); ok || err != nil {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
}
