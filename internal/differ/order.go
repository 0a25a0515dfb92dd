package differ

import (
	"container/heap"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// facts are the entities and properties an operation touches.
type facts struct {
	kind         operation.Kind
	entity       string
	props        []string
	principal    string
	principalKey []string
}

func factsOf(op operation.Operation) facts {
	f := facts{kind: op.Kind(), entity: op.EntityName()}
	switch o := op.(type) {
	case *operation.AddProperty:
		f.props = []string{o.Property.Name}
	case *operation.DropProperty:
		f.props = []string{o.Name}
	case *operation.AlterProperty:
		f.props = []string{o.Property.Name}
	case *operation.AddPrimaryKey:
		f.props = o.Key.Properties
	case *operation.DropPrimaryKey:
		f.props = o.Properties
	case *operation.AddAlternateKey:
		f.props = o.Key.Properties
	case *operation.DropAlternateKey:
		f.props = o.Properties
	case *operation.AddIndex:
		f.props = o.Index.Properties
	case *operation.DropIndex:
		f.props = o.Properties
	case *operation.AddForeignKey:
		f.props = o.ForeignKey.Properties
		f.principal = o.ForeignKey.PrincipalEntity
		f.principalKey = o.ForeignKey.PrincipalKey
	case *operation.DropForeignKey:
		f.props = o.Properties
		f.principal = o.PrincipalEntity
	}
	return f
}

// precedes reports whether a must be applied before b.
func precedes(a, b *facts) bool {
	switch a.kind {
	case operation.KindDropForeignKey:
		// A foreign key goes before anything else touching either end.
		return b.kind != operation.KindDropForeignKey &&
			(b.entity == a.entity || b.entity == a.principal)

	case operation.KindDropIndex, operation.KindDropAlternateKey, operation.KindDropPrimaryKey:
		if b.entity != a.entity {
			return false
		}
		switch b.kind {
		case operation.KindDropEntity:
			return true
		case operation.KindDropProperty, operation.KindAlterProperty:
			return overlaps(a.props, b.props)
		case operation.KindAddPrimaryKey:
			return a.kind == operation.KindDropPrimaryKey
		case operation.KindAddAlternateKey:
			return a.kind == operation.KindDropAlternateKey && model.SameProperties(a.props, b.props)
		case operation.KindAddIndex:
			return a.kind == operation.KindDropIndex && model.SameProperties(a.props, b.props)
		}

	case operation.KindDropProperty:
		return b.kind == operation.KindDropEntity && b.entity == a.entity

	case operation.KindAddEntity:
		return b.entity == a.entity || b.principal == a.entity

	case operation.KindAddProperty, operation.KindAlterProperty:
		switch b.kind {
		case operation.KindAddPrimaryKey, operation.KindAddAlternateKey, operation.KindAddIndex:
			return b.entity == a.entity && overlaps(a.props, b.props)
		case operation.KindAddForeignKey:
			return (b.entity == a.entity && overlaps(a.props, b.props)) ||
				(b.principal == a.entity && overlaps(a.props, b.principalKey))
		}

	case operation.KindAddPrimaryKey, operation.KindAddAlternateKey:
		return b.kind == operation.KindAddForeignKey &&
			b.principal == a.entity && model.SameProperties(a.props, b.principalKey)
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, p := range a {
		if model.References(b, p) {
			return true
		}
	}
	return false
}

// sortOperations orders ops topologically by precedes. Among operations whose
// predecessors are all placed, the one emitted first wins, so the result is
// deterministic and keeps declaration order wherever dependencies allow.
func sortOperations(ops operation.List) operation.List {
	n := len(ops)
	if n < 2 {
		return ops
	}

	fs := make([]facts, n)
	for i, op := range ops {
		fs[i] = factsOf(op)
	}

	succ := make([][]int, n)
	indeg := make([]int, n)
	for i := range fs {
		for j := range fs {
			if i != j && precedes(&fs[i], &fs[j]) {
				succ[i] = append(succ[i], j)
				indeg[j]++
			}
		}
	}

	ready := &indexHeap{}
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	sorted := make(operation.List, 0, n)
	placed := make([]bool, n)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		sorted = append(sorted, ops[i])
		placed[i] = true
		for _, j := range succ[i] {
			indeg[j]--
			if indeg[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	// Valid snapshots never produce a cycle; keep every operation regardless.
	for i := range ops {
		if !placed[i] {
			sorted = append(sorted, ops[i])
		}
	}
	return sorted
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
