package snowflake

import "testing"

func TestGenerateMonotonic(t *testing.T) {
	node, err := NewNode(1)
	if err != nil {
		t.Fatal(err)
	}

	prev := node.Generate()
	for i := 0; i < 10000; i++ {
		id := node.Generate()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNewNodeRange(t *testing.T) {
	if _, err := NewNode(-1); err == nil {
		t.Error("expected error for negative node id")
	}
	if _, err := NewNode(1024); err == nil {
		t.Error("expected error for node id above max")
	}
}

func TestNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE_ID", "42")
	node, err := NodeFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if node.node != 42 {
		t.Errorf("node id = %d, want 42", node.node)
	}

	t.Setenv("SNOWFLAKE_NODE_ID", "not-a-number")
	if _, err := NodeFromEnv(); err == nil {
		t.Error("expected error for non-numeric node id")
	}
}
