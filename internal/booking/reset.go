package booking

import (
	"context"

	"github.com/predator49/train-reservation/internal/layout"
	"github.com/predator49/train-reservation/internal/model"
)

// Reset destroys every seat and regenerates the map from cfg in one
// transaction. If anything fails the previous seats are kept. The returned
// seats are read back from the store, so they carry stored timestamps.
func Reset(ctx context.Context, store Store, cfg layout.Config) ([]model.Seat, error) {
	fresh, err := layout.Generate(cfg)
	if err != nil {
		return nil, err
	}
	var seats []model.Seat
	err = store.WithinTx(ctx, func(tx StoreTx) error {
		if err := tx.DeleteAll(ctx); err != nil {
			return storageErr("delete seats", err)
		}
		if err := tx.BulkInsert(ctx, fresh); err != nil {
			return storageErr("insert seats", err)
		}
		seats, err = tx.LoadAll(ctx)
		if err != nil {
			return storageErr("load seats", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("reset", err)
	}
	return seats, nil
}
