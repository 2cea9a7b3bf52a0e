package store

import (
	"fmt"
	"testing"
)

func ExampleStore_Lookup() {
	s := Default()

	v, found := s.Lookup("mongodb")
	fmt.Println(found, v)
	// Output: true {"uri": "mongodb://localhost:27017/?retryWrites=false"}
}

func TestDefault(t *testing.T) {
	s := Default()

	if s.Len() != 1 {
		t.Fatalf("expected=1 got=%d", s.Len())
	}

	if _, found := s.Lookup("postgres"); found {
		t.Errorf("postgres should not be found")
	}
	if _, found := s.Lookup("MongoDB"); found {
		t.Errorf("lookup must be case sensitive")
	}
}

func TestNewCopies(t *testing.T) {
	src := map[string]string{"a": "1"}
	s := New(src)

	src["a"] = "changed"
	src["b"] = "2"

	if v, _ := s.Lookup("a"); v != "1" {
		t.Errorf("expected=1 got=%s", v)
	}
	if s.Len() != 1 {
		t.Errorf("expected=1 got=%d", s.Len())
	}
}

func TestNames(t *testing.T) {
	s := New(map[string]string{"zeta": "", "alpha": "", "mid": ""})

	names := s.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("expected=%v got=%v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("index %d: expected=%s got=%s", i, want[i], names[i])
		}
	}
}
