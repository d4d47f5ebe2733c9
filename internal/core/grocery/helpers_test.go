package grocery

import (
	"context"
	"errors"
	"sync"
)

// fakePrefs 測試用偏好儲存
type fakePrefs struct {
	mu   sync.Mutex
	data map[string]map[string]Category
	err  error
	sets int
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{data: make(map[string]map[string]Category)}
}

func (f *fakePrefs) Get(_ context.Context, userID, key string) (Category, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	tag, ok := f.data[userID][key]
	return tag, ok, nil
}

func (f *fakePrefs) Set(_ context.Context, userID, key string, tag Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.data[userID] == nil {
		f.data[userID] = make(map[string]Category)
	}
	f.data[userID][key] = tag
	f.sets++
	return nil
}

func (f *fakePrefs) All(_ context.Context, userID string) (map[string]Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]Category, len(f.data[userID]))
	for k, v := range f.data[userID] {
		out[k] = v
	}
	return out, nil
}

var errStoreDown = errors.New("store down")

func findItem(t interface{ Helper() }, items CategorizedItems, key string) (ResolvedItem, Category, bool) {
	t.Helper()
	cat, idx, ok := items.Find(key)
	if !ok {
		return ResolvedItem{}, "", false
	}
	return items[cat][idx], cat, true
}
