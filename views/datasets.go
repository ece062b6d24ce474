package views

import (
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/widgets"
	"github.com/dustin/go-humanize"
)

// DatasetsViewParams holds configuration for creating a DatasetsView.
type DatasetsViewParams struct {
	Service api.DatasetServiceAPI
	Options
}

// DatasetsView lists source datasets, polled for ingestion progress.
type DatasetsView = ListView[api.Dataset]

// NewDatasetsView creates a DatasetsView backed by the given service.
func NewDatasetsView(p DatasetsViewParams) *DatasetsView {
	return newListView(listConfig[api.Dataset]{
		tab:  TabDatasets,
		noun: "datasets",
		load: loader(p.Service.ListDatasets),
		poll: true,
		columns: []Column[api.Dataset]{
			{Title: "NAME", TableColumn: widgets.TableColumn{Width: 16, Flex: true}, Value: func(d api.Dataset) string { return d.Name }},
			{Title: "SOURCE", TableColumn: widgets.TableColumn{Width: 8}, Value: func(d api.Dataset) string { return d.SourceType }},
			{Title: "RECORDS", TableColumn: widgets.TableColumn{Width: 9, AlignRight: true}, Value: func(d api.Dataset) string { return count(d.RecordCount) }},
			{Title: "SIZE", TableColumn: widgets.TableColumn{Width: 9, AlignRight: true}, Value: func(d api.Dataset) string { return humanize.Bytes(uint64(d.SizeBytes)) }},
			{Title: "STATUS", TableColumn: widgets.TableColumn{Width: 10}, Value: func(d api.Dataset) string { return d.Status }},
			{Title: "UPDATED", TableColumn: widgets.TableColumn{Width: 14}, Value: func(d api.Dataset) string { return ago(d.UpdatedAt) }},
		},
	}, p.Options)
}
