// Package stockledger owns purchase lots and the derived stock quantity and
// weighted-average cost cached on each product. Nothing else writes those two
// product columns.
package stockledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the transaction-scoped persistence needed to recompute a product.
type Store interface {
	ListStockEntries(ctx context.Context, productID uuid.UUID) ([]Entry, error)
	WriteCostSnapshot(ctx context.Context, snap Snapshot) error
}

// Recompute reads every lot of the product and overwrites its cached stock
// quantity and average cost. It is idempotent.
func Recompute(ctx context.Context, store Store, productID uuid.UUID) (Snapshot, error) {
	entries, err := store.ListStockEntries(ctx, productID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: list entries for %s: %w", productID, err)
	}
	snap, err := Compute(productID, entries)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: product %s: %w", productID, err)
	}
	if err := store.WriteCostSnapshot(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: write snapshot for %s: %w", productID, err)
	}
	return snap, nil
}

// RecomputeMany recomputes each distinct product once, in id order so
// concurrent transactions take product row locks in the same sequence.
func RecomputeMany(ctx context.Context, store Store, productIDs []uuid.UUID) ([]Snapshot, error) {
	ids := Distinct(productIDs)
	snaps := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := Recompute(ctx, store, id)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// ExcludeFromCostBasis keeps the stock quantity current but zeroes the average
// cost, for products that are no longer held for resale.
func ExcludeFromCostBasis(ctx context.Context, store Store, productID uuid.UUID) (Snapshot, error) {
	entries, err := store.ListStockEntries(ctx, productID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: list entries for %s: %w", productID, err)
	}
	snap, err := Compute(productID, entries)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: product %s: %w", productID, err)
	}
	snap.AverageCost = decimal.Zero
	if err := store.WriteCostSnapshot(ctx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: write snapshot for %s: %w", productID, err)
	}
	return snap, nil
}

// CostBasisStore is a Store that also knows whether a product still carries a
// resale cost basis.
type CostBasisStore interface {
	Store
	CostBasisExcluded(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Refresh is Recompute for repair tooling: products excluded from the cost
// basis get their quantity refreshed and keep a zero average cost.
func Refresh(ctx context.Context, store CostBasisStore, productID uuid.UUID) (Snapshot, error) {
	excluded, err := store.CostBasisExcluded(ctx, productID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stockledger: classification of %s: %w", productID, err)
	}
	if excluded {
		return ExcludeFromCostBasis(ctx, store, productID)
	}
	return Recompute(ctx, store, productID)
}

// Distinct returns the unique non-nil ids sorted ascending.
func Distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
