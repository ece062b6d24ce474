package views

import (
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/widgets"
)

// CollectionsViewParams holds configuration for creating a CollectionsView.
type CollectionsViewParams struct {
	Service api.CollectionServiceAPI
	Options
}

// CollectionsView lists document collections.
type CollectionsView = ListView[api.Collection]

// NewCollectionsView creates a CollectionsView backed by the given service.
func NewCollectionsView(p CollectionsViewParams) *CollectionsView {
	return newListView(listConfig[api.Collection]{
		tab:  TabCollections,
		noun: "collections",
		load: loader(p.Service.ListCollections),
		columns: []Column[api.Collection]{
			{Title: "NAME", TableColumn: widgets.TableColumn{Width: 16}, Value: func(c api.Collection) string { return c.Name }},
			{Title: "DATASETS", TableColumn: widgets.TableColumn{Width: 8, AlignRight: true}, Value: func(c api.Collection) string { return count(c.DatasetCount) }},
			{Title: "DOCUMENTS", TableColumn: widgets.TableColumn{Width: 9, AlignRight: true}, Value: func(c api.Collection) string { return count(c.DocumentCount) }},
			{Title: "DESCRIPTION", TableColumn: widgets.TableColumn{Width: 12, Flex: true}, Value: func(c api.Collection) string { return c.Description }},
			{Title: "UPDATED", TableColumn: widgets.TableColumn{Width: 14}, Value: func(c api.Collection) string { return ago(c.UpdatedAt) }},
		},
	}, p.Options)
}
