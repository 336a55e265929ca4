// Package pkg provides the core libraries for UVL feature-model analysis.
//
// # Overview
//
// uvlkit parses feature models written in the Universal Variability Language
// (UVL), encodes them as propositional formulas, and answers questions about
// the configuration space. The pkg directory is organized around that flow:
//
//  1. [uvl] - UVL text parsing into the feature-model representation
//  2. [fm] - Feature tree, cross-tree constraints, and configurations
//  3. [logic] - Propositional encoding of a model
//  4. [solver] - SAT and BDD backed reasoning (satisfiability, counting, enumeration)
//  5. [analysis] - Structural and semantic classifications built on the solver
//  6. [catalog] - The operation catalogue and its caching runner
//  7. [render] - Graphviz diagrams of feature models
//  8. [cache], [store], [config] - Infrastructure (result cache, model storage, configuration)
//
// # Architecture
//
// The typical data flow through uvlkit:
//
//	UVL text
//	     ↓
//	[uvl] package (parse into a feature model)
//	     ↓
//	[logic] package (encode as a propositional formula)
//	     ↓
//	[solver] package (SAT decisions, BDD counting and enumeration)
//	     ↓
//	[analysis] + [catalog] (named operations over the model)
//	     ↓
//	JSON results / DOT / SVG output
//
// # Quick Start
//
//	model, err := uvl.Parse(text)
//	if err != nil {
//	    return err
//	}
//	a := analysis.New(model)
//	core, err := a.CoreFeatures(ctx)
//
// Or run a named catalogue operation with caching:
//
//	runner := catalog.NewRunner(cache.NewNullCache(), nil)
//	result, err := runner.Run(ctx, catalog.Request{
//	    Operation: catalog.OpConfigurationsNumber,
//	    ModelText: text,
//	})
//
// [uvl]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/uvl
// [fm]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/fm
// [logic]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/logic
// [solver]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/solver
// [analysis]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/analysis
// [catalog]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/catalog
// [render]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/render
// [cache]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/cache
// [store]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/store
// [config]: https://pkg.go.dev/github.com/uvlkit/uvlkit/pkg/config
package pkg
