package engine

import (
	"github.com/shaiso/Trinity/internal/domain"
)

// Node — узел в графе зависимостей.
type Node struct {
	// Step — определение шага. Для повторяющихся ID — первое объявление.
	Step *domain.Step

	// ID — идентификатор узла (Step.ID).
	ID string

	// InDegree — количество входящих рёбер (разрешённых зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node

	// Missing — ID зависимостей, которых нет в процессе.
	Missing []string

	// SelfDependent — true, если шаг указан в собственном depends_on.
	SelfDependent bool
}

// Graph — граф зависимостей шагов процесса.
//
// В отличие от исполнительного DAG граф строится всегда: висячие ссылки
// складываются в Node.Missing, циклы не считаются ошибкой.
type Graph struct {
	// Nodes — все узлы графа (stepID → Node).
	Nodes map[string]*Node

	// RootNodes — узлы без разрешённых зависимостей, в порядке объявления.
	RootNodes []*Node

	// Order — топологически отсортированные узлы (алгоритм Кана).
	Order []*Node

	// Leftover — узлы, не попавшие в Order: в цикле или после цикла.
	Leftover []*Node

	// ids — порядок объявления.
	ids []string
}

// BuildGraph строит граф из шагов.
func BuildGraph(steps []domain.Step) *Graph {
	g := &Graph{
		Nodes:     make(map[string]*Node),
		RootNodes: make([]*Node, 0),
	}

	// Первый проход: создаём узлы
	for i := range steps {
		g.addNode(&steps[i])
	}

	// Второй проход: связываем по зависимостям
	for i := range steps {
		g.linkDependencies(&steps[i])
	}

	g.findRootNodes()
	g.Order, g.Leftover = g.topologicalSort()

	return g
}

// addNode добавляет узел. Повторный ID узел не пересоздаёт.
func (g *Graph) addNode(step *domain.Step) {
	if _, exists := g.Nodes[step.ID]; exists {
		return
	}
	g.Nodes[step.ID] = &Node{
		Step:       step,
		ID:         step.ID,
		DependsOn:  make([]*Node, 0),
		Dependents: make([]*Node, 0),
	}
	g.ids = append(g.ids, step.ID)
}

// linkDependencies связывает узел с его зависимостями.
func (g *Graph) linkDependencies(step *domain.Step) {
	node := g.Nodes[step.ID]

	for _, depID := range step.DependsOn {
		if depID == step.ID {
			node.SelfDependent = true
			continue
		}

		depNode, exists := g.Nodes[depID]
		if !exists {
			node.Missing = appendUnique(node.Missing, depID)
			continue
		}

		g.addEdge(depNode, node)
	}
}

// addEdge добавляет ребро между узлами.
// Дубликаты пропускаются, чтобы не считать InDegree дважды.
func (g *Graph) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// findRootNodes находит узлы без входящих рёбер.
func (g *Graph) findRootNodes() {
	g.RootNodes = make([]*Node, 0)
	for _, id := range g.ids {
		if node := g.Nodes[id]; node.InDegree == 0 {
			g.RootNodes = append(g.RootNodes, node)
		}
	}
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Узлы, до которых сортировка не дошла, возвращаются вторым значением.
func (g *Graph) topologicalSort() ([]*Node, []*Node) {
	inDegree := make(map[string]int, len(g.Nodes))
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
	}

	queue := make([]*Node, len(g.RootNodes))
	copy(queue, g.RootNodes)

	order := make([]*Node, 0, len(g.Nodes))
	visited := make(map[string]bool, len(g.Nodes))

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		visited[node.ID] = true

		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	leftover := make([]*Node, 0)
	for _, id := range g.ids {
		if !visited[id] {
			leftover = append(leftover, g.Nodes[id])
		}
	}

	return order, leftover
}

// HasCycle возвращает true, если в графе есть цикл.
func (g *Graph) HasCycle() bool {
	return len(g.Leftover) > 0
}

// InCycle проверяет, лежит ли узел на цикле.
func (g *Graph) InCycle(id string) bool {
	start, ok := g.Nodes[id]
	if !ok {
		return false
	}

	visited := make(map[string]bool)
	stack := append([]*Node(nil), start.DependsOn...)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.ID == id {
			return true
		}
		if visited[node.ID] {
			continue
		}
		visited[node.ID] = true
		stack = append(stack, node.DependsOn...)
	}

	return false
}

// GetNode возвращает узел по ID.
func (g *Graph) GetNode(id string) *Node {
	return g.Nodes[id]
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.Nodes)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
