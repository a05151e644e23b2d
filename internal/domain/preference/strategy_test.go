package preference

import "testing"

func TestStrategyMerge(t *testing.T) {
	t.Parallel()

	current := Strategy{"risk": "low", "stack_qb_wr": true}
	merged := current.Merge(map[string]any{"risk": "high", "stack_qb_wr": nil, "max_exposure": 0.3})

	if merged["risk"] != "high" {
		t.Fatalf("expected new value to win, got %v", merged["risk"])
	}
	if merged["stack_qb_wr"] != true {
		t.Fatalf("expected null patch to keep old value, got %v", merged["stack_qb_wr"])
	}
	if merged["max_exposure"] != 0.3 {
		t.Fatalf("expected new field, got %v", merged["max_exposure"])
	}
	if current["risk"] != "low" {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestStrategyMerge_NilReceiver(t *testing.T) {
	t.Parallel()

	var current Strategy
	merged := current.Merge(map[string]any{"risk": "high"})
	if len(merged) != 1 {
		t.Fatalf("unexpected merge result %v", merged)
	}
}
