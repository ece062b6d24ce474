package internal

import (
	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/realtime"
)

// Services holds the API service interfaces for one server profile.
type Services struct {
	Collections api.CollectionServiceAPI
	Datasets    api.DatasetServiceAPI
	Embeddings  api.EmbeddingServiceAPI
	LLMConfigs  api.LLMConfigServiceAPI

	// Events opens push channels. Nil leaves pages on polling only.
	Events realtime.Transport
	// Owner scopes push channels to the signed-in user.
	Owner string
}

// NewServices creates a Services container from the given service interfaces.
func NewServices(cs api.CollectionServiceAPI, ds api.DatasetServiceAPI, es api.EmbeddingServiceAPI, ls api.LLMConfigServiceAPI) *Services {
	return &Services{
		Collections: cs,
		Datasets:    ds,
		Embeddings:  es,
		LLMConfigs:  ls,
	}
}

// FromClient wires every service, and the push transport, to one client.
func FromClient(c *api.Client, owner string) *Services {
	svc := NewServices(
		api.NewCollectionService(c),
		api.NewDatasetService(c),
		api.NewEmbeddingService(c),
		api.NewLLMConfigService(c),
	)
	svc.Events = c
	svc.Owner = owner
	return svc
}

// Live reports whether push channels can be opened.
func (s *Services) Live() bool {
	return s.Events != nil && s.Owner != ""
}
