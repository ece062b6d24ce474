package views

import "github.com/deevus/ragdeck-tui/realtime"

// ViewLoaded is posted when a view's fetch completes, successfully or
// not. It is sent from background goroutines via PostEvent.
type ViewLoaded struct {
	Tab int
	Err error
}

// ViewUpdated is posted when a detail page commits fresh data.
type ViewUpdated struct{}

// ChannelChanged is posted when a page's push channel changes state.
type ChannelChanged struct {
	State realtime.State
}

// OpenEmbedding asks the app to open the detail page of an embedded
// dataset.
type OpenEmbedding struct {
	ID   string
	Name string
}

// CloseDetail asks the app to leave the detail page.
type CloseDetail struct{}

// Notice is a one-line message for the status line.
type Notice struct {
	Text string
	Err  bool
}

// Tab indexes of the list views.
const (
	TabCollections = iota
	TabDatasets
	TabEmbeddings
	TabLLMConfigs
)
