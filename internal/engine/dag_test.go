package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/Trinity/internal/domain"
)

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestBuildGraph_SimpleChain(t *testing.T) {
	g := BuildGraph([]domain.Step{step("A"), step("B", "A"), step("C", "B")})

	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}
	if got := nodeIDs(g.RootNodes); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected roots [A], got %v", got)
	}
	if got := nodeIDs(g.Order); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("expected order [A B C], got %v", got)
	}
	if g.HasCycle() {
		t.Error("chain should not have a cycle")
	}

	nodeC := g.GetNode("C")
	if len(nodeC.DependsOn) != 1 || nodeC.DependsOn[0].ID != "B" {
		t.Error("node C should depend on B")
	}
}

func TestBuildGraph_Diamond(t *testing.T) {
	g := BuildGraph([]domain.Step{step("A"), step("B", "A"), step("C", "A"), step("D", "B", "C")})

	// Проверяем inDegree
	want := map[string]int{"A": 0, "B": 1, "C": 1, "D": 2}
	for id, deg := range want {
		if got := g.GetNode(id).InDegree; got != deg {
			t.Errorf("%s: expected inDegree %d, got %d", id, deg, got)
		}
	}
	if len(g.GetNode("A").Dependents) != 2 {
		t.Error("A should have 2 dependents")
	}
}

func TestBuildGraph_DuplicateEdgeCountedOnce(t *testing.T) {
	g := BuildGraph([]domain.Step{step("A"), step("B", "A", "A")})

	if g.GetNode("B").InDegree != 1 {
		t.Errorf("expected inDegree 1, got %d", g.GetNode("B").InDegree)
	}
}

func TestBuildGraph_MissingAndSelf(t *testing.T) {
	g := BuildGraph([]domain.Step{step("A", "A"), step("B", "ghost", "ghost", "A")})

	if !g.GetNode("A").SelfDependent {
		t.Error("A should be self dependent")
	}
	if got := g.GetNode("B").Missing; !reflect.DeepEqual(got, []string{"ghost"}) {
		t.Errorf("expected missing [ghost], got %v", got)
	}
	// Self-dependency не создаёт ребро — A остаётся корнем
	if got := nodeIDs(g.RootNodes); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected roots [A], got %v", got)
	}
}

func TestBuildGraph_Cycle(t *testing.T) {
	// A → B → C → B, D после C
	g := BuildGraph([]domain.Step{step("A"), step("B", "A", "C"), step("C", "B"), step("D", "C")})

	if !g.HasCycle() {
		t.Fatal("expected cycle")
	}
	if got := nodeIDs(g.Leftover); !reflect.DeepEqual(got, []string{"B", "C", "D"}) {
		t.Errorf("expected leftover [B C D], got %v", got)
	}
	if !g.InCycle("B") || !g.InCycle("C") {
		t.Error("B and C should be in cycle")
	}
	if g.InCycle("A") || g.InCycle("D") {
		t.Error("A and D should not be in cycle")
	}
	if g.InCycle("nope") {
		t.Error("unknown node should not be in cycle")
	}
}
