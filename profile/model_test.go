package profile

import (
	"context"
	"testing"
)

func TestCompletenessLaw(t *testing.T) {
	cases := []struct {
		name     string
		p        *Profile
		complete bool
	}{
		{name: "nil profile", p: nil, complete: false},
		{name: "empty profile", p: &Profile{}, complete: false},
		{name: "name only", p: &Profile{FullName: "A"}, complete: false},
		{name: "scholar only", p: &Profile{ScholarID: "123"}, complete: false},
		{name: "blank scholar", p: &Profile{FullName: "A", ScholarID: ""}, complete: false},
		{name: "whitespace scholar", p: &Profile{FullName: "A", ScholarID: "   "}, complete: false},
		{name: "both set", p: &Profile{FullName: "A", ScholarID: "123"}, complete: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Complete(); got != tc.complete {
				t.Fatalf("Complete() = %v, want %v", got, tc.complete)
			}
			if got := RequiresCompletion(tc.p); got == tc.complete {
				t.Fatalf("RequiresCompletion() = %v, want %v", got, !tc.complete)
			}
		})
	}
}

func TestMemStoreUpdateMissingRow(t *testing.T) {
	s := NewMemStore()
	name := "Ann"
	if err := s.Update(context.Background(), "ghost", Changes{FullName: &name}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
