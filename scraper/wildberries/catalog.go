package wildberries

import (
	"encoding/json"
	"fmt"
	"strings"
)

const siteOrigin = "https://www.wildberries.ru"

// menuNode is one entry of the Wildberries main menu tree.
type menuNode struct {
	Name   string     `json:"name"`
	Shard  string     `json:"shard"`
	URL    string     `json:"url"`
	Query  string     `json:"query"`
	Childs []menuNode `json:"childs"`
}

// Category is a flattened menu entry that can be paginated.
type Category struct {
	Name  string
	Shard string
	URL   string
	Query string
}

func parseMenu(body []byte) ([]menuNode, error) {
	var nodes []menuNode
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, fmt.Errorf("wildberries: decode menu: %w", err)
	}
	return nodes, nil
}

// flattenMenu walks the tree depth-first, parents before children.
func flattenMenu(nodes []menuNode) []Category {
	var out []Category
	for _, n := range nodes {
		out = append(out, Category{Name: n.Name, Shard: n.Shard, URL: n.URL, Query: n.Query})
		if len(n.Childs) > 0 {
			out = append(out, flattenMenu(n.Childs)...)
		}
	}
	return out
}

// categoryPath strips the site origin so a full category URL can be matched
// against the menu's relative paths.
func categoryPath(categoryURL string) string {
	parts := strings.Split(strings.TrimSpace(categoryURL), siteOrigin)
	return parts[len(parts)-1]
}

func findCategory(categoryURL string, categories []Category) (Category, bool) {
	path := categoryPath(categoryURL)
	for _, c := range categories {
		if c.URL == path {
			return c, true
		}
	}
	return Category{}, false
}
