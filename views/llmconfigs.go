package views

import (
	"fmt"
	"strconv"

	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/widgets"
)

// LLMConfigsViewParams holds configuration for creating an LLMConfigsView.
type LLMConfigsViewParams struct {
	Service api.LLMConfigServiceAPI
	Options
}

// LLMConfigsView lists model configurations.
type LLMConfigsView = ListView[api.LLMConfig]

// NewLLMConfigsView creates an LLMConfigsView backed by the given service.
func NewLLMConfigsView(p LLMConfigsViewParams) *LLMConfigsView {
	return newListView(listConfig[api.LLMConfig]{
		tab:  TabLLMConfigs,
		noun: "configs",
		load: loader(p.Service.ListLLMConfigs),
		columns: []Column[api.LLMConfig]{
			{Title: "", TableColumn: widgets.TableColumn{Width: 1}, Value: func(c api.LLMConfig) string {
				if c.IsDefault {
					return "*"
				}
				return ""
			}},
			{Title: "NAME", TableColumn: widgets.TableColumn{Width: 16, Flex: true}, Value: func(c api.LLMConfig) string { return c.Name }},
			{Title: "PROVIDER", TableColumn: widgets.TableColumn{Width: 10}, Value: func(c api.LLMConfig) string { return c.Provider }},
			{Title: "MODEL", TableColumn: widgets.TableColumn{Width: 24}, Value: func(c api.LLMConfig) string { return c.Model }},
			{Title: "TEMP", TableColumn: widgets.TableColumn{Width: 4, AlignRight: true}, Value: func(c api.LLMConfig) string { return fmt.Sprintf("%.1f", c.Temperature) }},
			{Title: "MAX TOK", TableColumn: widgets.TableColumn{Width: 7, AlignRight: true}, Value: func(c api.LLMConfig) string { return strconv.Itoa(c.MaxTokens) }},
		},
	}, p.Options)
}
