package views

import (
	"strconv"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/widgets"
)

// EmbeddingsViewParams holds configuration for creating an EmbeddingsView.
type EmbeddingsViewParams struct {
	Service api.EmbeddingServiceAPI
	Options
}

// EmbeddingsView lists embedded datasets. Status events for any row on
// screen re-fetch the page; Enter opens the detail page.
type EmbeddingsView = ListView[api.EmbeddedDataset]

// NewEmbeddingsView creates an EmbeddingsView backed by the given service.
func NewEmbeddingsView(p EmbeddingsViewParams) *EmbeddingsView {
	return newListView(listConfig[api.EmbeddedDataset]{
		tab:  TabEmbeddings,
		noun: "embedded datasets",
		load: loader(p.Service.ListEmbeddedDatasets),
		id:   func(e api.EmbeddedDataset) string { return e.ID },
		open: func(e api.EmbeddedDataset) vaxis.Event {
			return OpenEmbedding{ID: e.ID, Name: e.Name}
		},
		columns: []Column[api.EmbeddedDataset]{
			{Title: "NAME", TableColumn: widgets.TableColumn{Width: 16, Flex: true}, Value: func(e api.EmbeddedDataset) string { return e.Name }},
			{Title: "MODEL", TableColumn: widgets.TableColumn{Width: 24}, Value: func(e api.EmbeddedDataset) string { return e.Model }},
			{Title: "DIMS", TableColumn: widgets.TableColumn{Width: 5, AlignRight: true}, Value: func(e api.EmbeddedDataset) string { return strconv.Itoa(e.Dimensions) }},
			{Title: "PROGRESS", TableColumn: widgets.TableColumn{Width: 8, AlignRight: true}, Value: func(e api.EmbeddedDataset) string {
				return formatPercent(percent(e.EmbeddedRecords, e.TotalRecords))
			}},
			{Title: "STATUS", TableColumn: widgets.TableColumn{Width: 10}, Value: func(e api.EmbeddedDataset) string { return e.Status }},
		},
	}, p.Options)
}
