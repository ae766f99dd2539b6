package payloadstore

import (
	"testing"

	"github.com/vgees/qdrant/types"
)

func TestMemoryStore_AssignMergesKeys(t *testing.T) {
	s := NewMemoryStore()

	s.Assign(0, "a", types.Integer(1))
	s.Assign(0, "b", types.Keyword("x"))

	p := s.Payload(0)
	if len(p) != 2 {
		t.Fatalf("Payload: got %d keys", len(p))
	}
	if !p["a"].Equal(types.Integer(1)) || !p["b"].Equal(types.Keyword("x")) {
		t.Fatalf("Payload: got %v", p)
	}
}

func TestMemoryStore_AssignAllReplaces(t *testing.T) {
	s := NewMemoryStore()

	s.Assign(0, "a", types.Integer(1))
	s.AssignAll(0, types.Payload{"b": types.Bool(true)})

	p := s.Payload(0)
	if _, ok := p["a"]; ok {
		t.Fatal("AssignAll kept an old key")
	}
	if !p["b"].Equal(types.Bool(true)) {
		t.Fatalf("Payload: got %v", p)
	}
}

func TestMemoryStore_AssignAllCopiesInput(t *testing.T) {
	s := NewMemoryStore()

	in := types.Payload{"a": types.Integer(1)}
	s.AssignAll(0, in)
	in["a"] = types.Integer(2)

	if !s.Payload(0)["a"].Equal(types.Integer(1)) {
		t.Fatal("store aliases caller memory")
	}
}

func TestMemoryStore_DeleteKey(t *testing.T) {
	s := NewMemoryStore()

	s.Assign(0, "a", types.Integer(1))
	s.Delete(0, "a")
	s.Delete(0, "missing")
	s.Delete(9, "a")

	if len(s.Payload(0)) != 0 {
		t.Fatalf("Payload after delete: got %v", s.Payload(0))
	}
}

func TestMemoryStore_DropReturnsAndClears(t *testing.T) {
	s := NewMemoryStore()

	s.Assign(0, "a", types.Integer(1))

	dropped := s.Drop(0)
	if dropped == nil || !dropped["a"].Equal(types.Integer(1)) {
		t.Fatalf("Drop: got %v", dropped)
	}

	if got := s.Drop(0); got != nil {
		t.Fatalf("second Drop: got %v", got)
	}

	p := s.Payload(0)
	if p == nil || len(p) != 0 {
		t.Fatalf("Payload after drop: got %v", p)
	}
}

func TestMemoryStore_PayloadIsCopy(t *testing.T) {
	s := NewMemoryStore()

	s.Assign(0, "a", types.Integer(1))

	p := s.Payload(0)
	p["a"] = types.Integer(99)

	if !s.Payload(0)["a"].Equal(types.Integer(1)) {
		t.Fatal("Payload result aliases store state")
	}
}
