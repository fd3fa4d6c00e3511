// Package linker implements the standard module linker of spec.md
// §4.6: given modulec independent, already-compiled modules, it
// synthesises a single top-level executable that calls each module's
// function with its declared dependencies and returns the last
// module's value.
//
// Grounded on spec.md §4.6's prose directly — it is exact enough to
// implement without a teacher analogue (the teacher has no module
// system; it compiles one translation unit to one LLVM module).
// Independent-module validation fans out with golang.org/x/sync's
// errgroup + semaphore.Weighted, deliberately the one place in this
// repository that uses real goroutine concurrency: it is host-side
// linking preparation, not interpreter execution, so it does not
// conflict with the single-threaded scheduler spec.md §5 mandates for
// internal/interp.
package linker

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/interp"
)

// Module is one compiled unit handed to the linker: its module path,
// the paths it declares as dependencies, and the executable value
// implementing it (a func value of arity len(Deps), whose arguments
// are supplied in Deps order).
type Module struct {
	Path string
	Deps []string
	Func *interp.Value
}

// maxConcurrentPrepare bounds the independent-module validation
// fan-out; an arbitrarily long module list shouldn't spawn one
// goroutine per module.
const maxConcurrentPrepare = 8

// Link synthesises the top-level executable of spec.md §4.6: modulec
// locals and modulec statics (one per module function), a
// dependency-sorted Call per module selecting its declared deps by
// path equality into the corresponding local, a Release of every
// local, then a Return of local[modulec-1] — by convention the entry
// module is the last one in modules.
func Link(modules []*Module) (*interp.Value, error) {
	prepared, err := prepareAll(modules)
	if err != nil {
		return nil, err
	}
	order, err := topoSort(prepared)
	if err != nil {
		return nil, err
	}
	return assembleLinked(prepared, order), nil
}

type preparedModule struct {
	*Module
	index int
}

// prepareAll checks path uniqueness in one sequential pass, then
// validates each module independently of the others — dependency
// resolvability and that its Func is actually callable — so that
// work fans out with errgroup rather than a sequential loop; none of
// it depends on another module's validation result.
func prepareAll(modules []*Module) ([]*preparedModule, error) {
	byPath := make(map[string]int, len(modules))
	for i, m := range modules {
		if _, dup := byPath[m.Path]; dup {
			return nil, fmt.Errorf("linker: duplicate module path %q", m.Path)
		}
		byPath[m.Path] = i
	}

	prepared := make([]*preparedModule, len(modules))
	sem := semaphore.NewWeighted(maxConcurrentPrepare)
	g, ctx := errgroup.WithContext(context.Background())
	for i, m := range modules {
		i, m := i, m
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			for _, dep := range m.Deps {
				if _, ok := byPath[dep]; !ok {
					return fmt.Errorf("linker: module %q declares unresolved dependency %q", m.Path, dep)
				}
			}
			if m.Func == nil || m.Func.Kind != interp.KindFunc {
				return fmt.Errorf("linker: module %q has no executable value", m.Path)
			}
			prepared[i] = &preparedModule{Module: m, index: i}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prepared, nil
}

// topoSort orders modules so every dependency precedes its dependents
// (spec.md §4.6's "dependency-sorted order"). Iteration over modules
// themselves is path-sorted first so the resulting order is
// deterministic across runs given the same module set.
func topoSort(modules []*preparedModule) ([]*preparedModule, error) {
	byPath := make(map[string]*preparedModule, len(modules))
	for _, m := range modules {
		byPath[m.Path] = m
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(modules))
	var order []*preparedModule

	var visit func(m *preparedModule) error
	visit = func(m *preparedModule) error {
		switch state[m.Path] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("linker: dependency cycle involving module %q", m.Path)
		}
		state[m.Path] = visiting
		deps := append([]string(nil), m.Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(byPath[dep]); err != nil {
				return err
			}
		}
		state[m.Path] = done
		order = append(order, m)
		return nil
	}

	sorted := append([]*preparedModule(nil), modules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	for _, m := range sorted {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// assembleLinked builds the synthesized top-level code block per
// spec.md §4.6's exact instruction sequence.
func assembleLinked(prepared []*preparedModule, order []*preparedModule) *interp.Value {
	modulec := len(prepared)
	block := bytecode.NewCodeBlock("linked", 0, modulec)
	locals := make([]int, modulec)
	for i := range locals {
		locals[i] = block.AllocLocal()
	}

	pathToLocal := make(map[string]int, modulec)
	for _, m := range prepared {
		pathToLocal[m.Path] = locals[m.index]
	}

	for _, m := range order {
		args := make([]bytecode.FrameIndex, len(m.Deps))
		for j, dep := range m.Deps {
			args[j] = bytecode.Local(pathToLocal[dep])
		}
		block.Emit(&bytecode.Call{
			Func: bytecode.Static(m.index),
			Args: args,
			Dest: locals[m.index],
		})
	}

	for _, l := range locals {
		block.Emit(&bytecode.Release{Target: bytecode.Local(l)})
	}
	block.Emit(&bytecode.Return{Result: bytecode.Local(locals[modulec-1])})

	statics := make([]*interp.Value, modulec)
	for _, m := range prepared {
		statics[m.index] = m.Func
	}
	return interp.NewFunc(block, statics)
}
