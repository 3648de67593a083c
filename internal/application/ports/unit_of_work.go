// Package ports - the transaction boundary for use cases.
package ports

import "context"

// UnitOfWork draws one DB transaction around fn.
//
// Contract:
//   - fn receives a context carrying the transaction; every
//     repository call inside fn must use that context, or it runs
//     outside the transaction.
//   - fn returning nil means COMMIT; returning an error means
//     ROLLBACK, and the error reaches the caller unchanged.
//   - A nested Execute does not open a second transaction; it runs
//     fn in the existing one.
//
// The transfer engine relies on this contract: the wallets row locks
// taken via GetForUpdate inside fn live exactly until
// COMMIT/ROLLBACK.
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    w, err := walletRepo.GetForUpdate(txCtx, userID)
//	    if err != nil {
//	        return err // rollback
//	    }
//	    _, err = walletRepo.ApplyDelta(txCtx, userID, delta)
//	    return err
//	})
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}
