package action

import (
	"testing"

	"github.com/waggleworks/waggle/src/entry"
)

func TestWrapAssignsUniqueIDs(t *testing.T) {
	a := &Commit{Entry: entry.New("post", "hello")}

	w1 := Wrap(a)
	w2 := Wrap(a)

	if w1.ID == "" || w2.ID == "" {
		t.Fatal("wrapper IDs should not be empty")
	}

	if w1.ID == w2.ID {
		t.Fatal("wrapper IDs should be unique")
	}

	if w1.Action != Action(a) {
		t.Fatal("wrapper should carry the wrapped action")
	}
}

func TestNames(t *testing.T) {
	testCases := []struct {
		action Action
		name   string
	}{
		{&Commit{}, "commit"},
		{&GetEntry{}, "get-entry"},
		{&AddLink{}, "add-link"},
		{&GetLinks{}, "get-links"},
	}

	for _, tc := range testCases {
		if tc.action.Name() != tc.name {
			t.Fatalf("Name should be %s, not %s", tc.name, tc.action.Name())
		}
	}
}
