package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/universe/internal/universe"
)

var _ list.Item = artistItem{}

// artistItem wraps a [universe.Entity] and its set index to implement [list.Item].
type artistItem struct {
	index  int
	entity universe.Entity
}

func (i artistItem) FilterValue() string { return i.entity.Name }
func (i artistItem) Title() string       { return i.entity.Name }
func (i artistItem) Description() string {
	return universe.FormatCount(i.entity.MetricCount) + " scrobbles"
}

func artistItems(entities []universe.Entity) []list.Item {
	items := make([]list.Item, len(entities))
	for i, e := range entities {
		items[i] = artistItem{index: i, entity: e}
	}
	return items
}
