package visitor

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type memoryStore struct {
	value string
	ok    bool
	sets  int
}

func (m *memoryStore) Get() (string, bool) { return m.value, m.ok }

func (m *memoryStore) Set(value string) {
	m.value = value
	m.ok = true
	m.sets++
}

func TestGetOrCreateMintsWhenEmpty(t *testing.T) {
	store := &memoryStore{}
	value := GetOrCreate(store)
	if !Valid(value) {
		t.Fatalf("minted identifier %q has unexpected shape", value)
	}
	if store.sets != 1 {
		t.Fatalf("expected 1 store write, got %d", store.sets)
	}
}

func TestGetOrCreateStable(t *testing.T) {
	store := &memoryStore{}
	first := GetOrCreate(store)
	second := GetOrCreate(store)
	if first != second {
		t.Fatalf("expected stable identifier, got %q then %q", first, second)
	}
	if store.sets != 1 {
		t.Fatalf("expected no rewrite on second call, got %d writes", store.sets)
	}
}

func TestGetOrCreateReplacesMalformed(t *testing.T) {
	store := &memoryStore{value: "not-a-visitor-id", ok: true}
	value := GetOrCreate(store)
	if !Valid(value) {
		t.Fatalf("expected fresh identifier, got %q", value)
	}
	if store.sets != 1 {
		t.Fatalf("expected replacement write, got %d", store.sets)
	}
}

func TestValid(t *testing.T) {
	if !Valid("4f2a1c9e-7b3d-4e8f-9a1b-2c3d4e5f6a7b") {
		t.Fatal("expected canonical identifier to validate")
	}
	for _, value := range []string{
		"",
		"4f2a1c9e-7b3d-1e8f-9a1b-2c3d4e5f6a7b", // wrong version nibble
		"4F2A1C9E-7B3D-4E8F-9A1B-2C3D4E5F6A7B", // uppercase
		"4f2a1c9e7b3d4e8f9a1b2c3d4e5f6a7b",     // no dashes
	} {
		if Valid(value) {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestCookieJarRoundTrip(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	minted := FromRequest(recorder, request)
	if !Valid(minted) {
		t.Fatalf("minted identifier %q has unexpected shape", minted)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != StorageKey {
		t.Fatalf("expected %s cookie, got %v", StorageKey, cookies)
	}

	// A follow-up request carrying the cookie keeps the identity.
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookies[0])
	second := FromRequest(httptest.NewRecorder(), again)
	if second != minted {
		t.Fatalf("expected stable identity, got %q then %q", minted, second)
	}
}
