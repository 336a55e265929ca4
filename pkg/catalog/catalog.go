// Package catalog exposes the analysis engine as a fixed set of named
// operations, the way remote callers invoke it: operation name plus model
// text plus optional parameters in, one JSON-encodable result value out.
//
// The catalog is the single dispatch point shared by the CLI, the HTTP
// server, and the MCP server, so result shapes and caching behavior stay
// identical across all surfaces.
package catalog

import (
	"sort"
	"strings"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

// Operation names one analysis from the catalogue.
type Operation string

// The full operation catalogue.
const (
	OpConfigurations           Operation = "configurations"
	OpConfigurationsNumber     Operation = "configurations_number"
	OpEstimatedConfigurations  Operation = "estimated_number_of_configurations"
	OpCoreFeatures             Operation = "core_features"
	OpDeadFeatures             Operation = "dead_features"
	OpFalseOptionalFeatures    Operation = "false_optional_features"
	OpLeafFeatures             Operation = "leaf_features"
	OpCountLeafs               Operation = "count_leafs"
	OpFeatureAncestors         Operation = "feature_ancestors"
	OpAtomicSets               Operation = "atomic_sets"
	OpAverageBranchingFactor   Operation = "average_branching_factor"
	OpMaxDepth                 Operation = "max_depth"
	OpSatisfiability           Operation = "satisfiability"
	OpSatisfiableConfiguration Operation = "satisfiable_configuration"
	OpCommonality              Operation = "commonality"
	OpHomogeneity              Operation = "homogeneity"
	OpFilter                   Operation = "filter"
	OpSampling                 Operation = "sampling"
	OpUniqueFeatures           Operation = "unique_features"
	OpVariantFeatures          Operation = "variant_features"
	OpVariability              Operation = "variability"
)

var operations = map[Operation]bool{
	OpConfigurations:           true,
	OpConfigurationsNumber:     true,
	OpEstimatedConfigurations:  true,
	OpCoreFeatures:             true,
	OpDeadFeatures:             true,
	OpFalseOptionalFeatures:    true,
	OpLeafFeatures:             true,
	OpCountLeafs:               true,
	OpFeatureAncestors:         true,
	OpAtomicSets:               true,
	OpAverageBranchingFactor:   true,
	OpMaxDepth:                 true,
	OpSatisfiability:           true,
	OpSatisfiableConfiguration: true,
	OpCommonality:              true,
	OpHomogeneity:              true,
	OpFilter:                   true,
	OpSampling:                 true,
	OpUniqueFeatures:           true,
	OpVariantFeatures:          true,
	OpVariability:              true,
}

// Valid reports whether the operation is part of the catalogue.
func (op Operation) Valid() bool { return operations[op] }

// Operations returns all operation names in alphabetical order.
func Operations() []Operation {
	out := make([]Operation, 0, len(operations))
	for op := range operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Request is one analysis invocation. ModelText and Operation are always
// required; the remaining fields are operation-specific parameters.
type Request struct {
	Operation Operation `json:"operation"`
	ModelText string    `json:"model_text"`

	// Feature names the subject feature for feature_ancestors and
	// commonality.
	Feature string `json:"feature,omitempty"`

	// Selection lists the selected features for satisfiable_configuration.
	Selection []string `json:"selection,omitempty"`

	// Criteria holds the partial selection for filter.
	Criteria map[string]bool `json:"criteria,omitempty"`

	// Count is the sample size for sampling.
	Count int `json:"count,omitempty"`
}

// ParseCriteria parses the textual filter-criteria format: a comma-separated
// list of feature names, each optionally prefixed with "!" for forced
// deselection. "A, !B" forces A selected and B unselected.
func ParseCriteria(s string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		want := true
		if strings.HasPrefix(part, "!") {
			want = false
			part = strings.TrimSpace(part[1:])
		}
		if part == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "empty feature name in criteria %q", s)
		}
		out[part] = want
	}
	return out, nil
}
