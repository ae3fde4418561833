// Package sentryhelper gives each catalog operation its own Sentry hub so
// breadcrumbs from one save do not leak into another.
package sentryhelper

import (
	"context"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
)

type contextKey string

const hubContextKey contextKey = "sentry_hub"

// StartOperationTransaction creates a transaction on a cloned hub for a
// catalog operation such as a save or a reload.
func StartOperationTransaction(ctx context.Context, operation string, detail string) (context.Context, *sentry.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	hub := HubFromContext(ctx).Clone()
	ctx = context.WithValue(ctx, hubContextKey, hub)

	transaction := sentry.StartTransaction(ctx, fmt.Sprintf("cubecubic.%s", operation),
		sentry.WithOpName(operation),
		sentry.WithTransactionSource(sentry.SourceTask),
	)
	if detail != "" {
		transaction.SetTag("detail", detail)
	}

	hub.Scope().SetSpan(transaction)
	return transaction.Context(), transaction
}

// HubFromContext retrieves the cloned hub from context, or the current hub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx == nil {
		return sentry.CurrentHub()
	}
	if hub, ok := ctx.Value(hubContextKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func AddBreadcrumb(ctx context.Context, breadcrumb *sentry.Breadcrumb) {
	HubFromContext(ctx).AddBreadcrumb(breadcrumb, nil)
}

func CaptureException(ctx context.Context, err error) *sentry.EventID {
	return HubFromContext(ctx).CaptureException(err)
}
