package middleware

import (
	"context"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/pkg/ctxutil"
)

// RequireAdmin returns domain.ErrUnauthorized for anonymous callers and
// domain.ErrForbidden for non-admins. Called from handlers.
func RequireAdmin(ctx context.Context) error {
	if _, ok := ctxutil.ActorFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	if !ctxutil.IsAdminCtx(ctx) {
		return domain.ErrForbidden
	}
	return nil
}
