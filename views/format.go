package views

import (
	"context"
	"fmt"
	"time"

	"github.com/deevus/ragdeck-tui/api"
	"github.com/deevus/ragdeck-tui/paging"
	"github.com/dustin/go-humanize"
)

// loader adapts a List* service method to a paging.LoadFunc.
func loader[T any](list func(context.Context, api.ListParams) (api.ListResponse[T], error)) paging.LoadFunc[T] {
	return func(ctx context.Context, offset, limit int, search string) (paging.Result[T], error) {
		resp, err := list(ctx, api.ListParams{Offset: offset, Limit: limit, Search: search})
		if err != nil {
			return paging.Result[T]{}, err
		}
		return paging.Result[T]{Items: resp.Items, TotalCount: resp.TotalCount}, nil
	}
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

// percent is done/total as 0–100, with an empty job counting as done.
func percent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
