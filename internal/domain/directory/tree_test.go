package directory

import "testing"

func TestWouldCreateCycle(t *testing.T) {
	// eng -> platform -> root
	parents := map[string]string{
		"platform": "root",
		"eng":      "platform",
		"sales":    "root",
	}

	cases := []struct {
		name       string
		department string
		newParent  string
		want       bool
	}{
		{"no parent", "eng", "", false},
		{"self parent", "eng", "eng", true},
		{"reparent to sibling", "eng", "sales", false},
		{"reparent root under descendant", "root", "eng", true},
		{"reparent to own child", "platform", "eng", true},
		{"unknown parent", "eng", "new-dept", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WouldCreateCycle(tc.department, tc.newParent, parents); got != tc.want {
				t.Fatalf("WouldCreateCycle(%s, %s) = %v, want %v", tc.department, tc.newParent, got, tc.want)
			}
		})
	}
}

func TestWouldCreateCycleCorruptChain(t *testing.T) {
	// a and b already point at each other; the walk must terminate.
	parents := map[string]string{"a": "b", "b": "a"}
	if WouldCreateCycle("c", "a", parents) {
		t.Fatal("unrelated department must not be flagged")
	}
}
