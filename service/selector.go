package service

import "akut-backend/models"

// DefaultGroundingLimit is the number of nodes handed to the model. It is also
// the upper bound: a prompt never carries more steps than this.
const DefaultGroundingLimit = 5

// GroundingSelector picks the nodes that ground a prompt
type GroundingSelector interface {
	Select(nodes []models.FlattenedNode) []models.FlattenedNode
}

// PrefixSelector keeps the first Limit nodes in order. Trees are authored with
// the most critical steps first, so position is the relevance signal.
type PrefixSelector struct {
	Limit int
}

// Select returns a copy of the first min(len(nodes), Limit) nodes.
// Limit is clamped to 1..DefaultGroundingLimit.
func (s PrefixSelector) Select(nodes []models.FlattenedNode) []models.FlattenedNode {
	limit := s.Limit
	if limit <= 0 || limit > DefaultGroundingLimit {
		limit = DefaultGroundingLimit
	}
	if len(nodes) < limit {
		limit = len(nodes)
	}
	out := make([]models.FlattenedNode, limit)
	copy(out, nodes[:limit])
	return out
}
