package llm

import (
	"github.com/novabase-ai/novabase/engine/core"
)

// CostPriority expresses how much the caller cares about spend.
type CostPriority string

const (
	CostPriorityLow  CostPriority = "low"
	CostPriorityHigh CostPriority = "high"
)

// SelectionCriteria describes the capabilities a request needs.
type SelectionCriteria struct {
	RequiresToolUse bool
	NeedsCreativity bool
	CostPriority    CostPriority
}

// SelectionPolicy maps capability roles to providers. Select is a pure
// function: identical inputs always yield the same provider.
type SelectionPolicy struct {
	CostEfficient core.ProviderName
	Creative      core.ProviderName
	Tool          core.ProviderName
}

// Select resolves the provider for a request. Rule order: an explicit
// provider always wins; then tool use, creativity, and cost priority in
// that order; with the cost-efficient provider as the default.
func (p SelectionPolicy) Select(explicit core.ProviderName, criteria *SelectionCriteria) core.ProviderName {
	if explicit != "" {
		return explicit
	}
	if criteria != nil {
		if criteria.RequiresToolUse {
			return p.Tool
		}
		if criteria.NeedsCreativity {
			return p.Creative
		}
		if criteria.CostPriority == CostPriorityHigh {
			return p.CostEfficient
		}
	}
	return p.CostEfficient
}
