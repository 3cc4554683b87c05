package service

import (
	"strings"

	"akut-backend/models"
)

// Flatten turns a tree into its ordered candidate nodes: the root entry first,
// then every other record-valued entry in document order. Entries that are
// not records or have no usable id are left out.
func Flatten(tree *models.DecisionTree) []models.FlattenedNode {
	if tree == nil {
		return []models.FlattenedNode{}
	}

	nodes := make([]models.FlattenedNode, 0, len(tree.Entries))
	if root, ok := tree.Root(); ok {
		if n, ok := parseNode(models.RootKey, root); ok {
			nodes = append(nodes, n)
		}
	}
	for _, entry := range tree.Entries {
		if entry.Key == models.RootKey {
			continue
		}
		if n, ok := parseNode(entry.Key, entry.Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// parseNode derives a flattened node from one tree entry. The id is the
// node's own id or else its key; text is text, else text_simplified.
func parseNode(key string, node *models.DecisionNode) (models.FlattenedNode, bool) {
	if node == nil {
		return models.FlattenedNode{}, false
	}
	id := node.ID
	if id == "" {
		id = key
	}
	if id == "" {
		return models.FlattenedNode{}, false
	}

	text := node.Text
	if text == "" {
		text = node.TextSimplified
	}
	return models.FlattenedNode{ID: id, Text: normalizeWhitespace(text)}, true
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
