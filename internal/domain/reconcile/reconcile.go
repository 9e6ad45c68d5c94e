// Package reconcile diffs an edited item collection against its persisted
// baseline and computes the delete/update/insert sets plus the recomputed
// report total. It is a pure package: no I/O, no clock, no locking.
package reconcile

import "expenseflow/internal/domain/entity"

// Kind tags how an edited item relates to the persisted baseline.
type Kind int

const (
	// KindPersisted is a row that exists in the database and remains;
	// saving rewrites every field (full-row replace, not a partial patch).
	KindPersisted Kind = iota

	// KindNew is an item added during this edit session, not yet saved.
	KindNew

	// KindDeleted is a persisted row marked for removal.
	KindDeleted
)

// EditedItem is one line of an edit session, tagged with its fate. The
// tagged form makes "new AND deleted" unrepresentable here; that case is
// discarded by FromSession before classification.
type EditedItem struct {
	Kind Kind
	Item entity.ExpenseItem
}

// SessionItem mirrors the shape of a line item as it arrives from the
// client: row fields plus the transient edit-session flags. The flags are
// never persisted.
type SessionItem struct {
	Item      entity.ExpenseItem
	IsNew     bool
	IsDeleted bool
}

// FromSession converts flag-style session items into tagged edited items.
//
// An item that was both added and removed within the same session never
// reached the database and produces no operation; it is dropped here. An
// unflagged item without a persisted id is treated as new.
func FromSession(items []SessionItem) []EditedItem {
	edited := make([]EditedItem, 0, len(items))
	for _, it := range items {
		switch {
		case it.IsNew && it.IsDeleted:
			continue
		case it.IsNew, it.Item.ID == 0 && !it.IsDeleted:
			edited = append(edited, EditedItem{Kind: KindNew, Item: it.Item})
		case it.IsDeleted:
			edited = append(edited, EditedItem{Kind: KindDeleted, Item: it.Item})
		default:
			edited = append(edited, EditedItem{Kind: KindPersisted, Item: it.Item})
		}
	}
	return edited
}

// Plan is the set of disjoint persistence operations produced by
// reconciliation, plus the recomputed total over the surviving items.
type Plan struct {
	ToDelete   []int64
	ToUpdate   []entity.ExpenseItem
	ToInsert   []entity.ExpenseItem
	TotalCents int64
}

// ItemCount returns how many items the report will hold after the plan is
// applied. A report must retain at least one item; the save workflow
// refuses plans where this is zero.
func (p Plan) ItemCount() int {
	return len(p.ToUpdate) + len(p.ToInsert)
}

// Reconcile classifies edited items into the three operation sets and sums
// the total over every non-deleted item. Last editor wins: there is no
// merge or conflict resolution.
func Reconcile(edited []EditedItem) Plan {
	var plan Plan
	for _, e := range edited {
		switch e.Kind {
		case KindDeleted:
			if e.Item.ID != 0 {
				plan.ToDelete = append(plan.ToDelete, e.Item.ID)
			}
		case KindNew:
			plan.ToInsert = append(plan.ToInsert, e.Item)
			plan.TotalCents += e.Item.AmountCents
		case KindPersisted:
			plan.ToUpdate = append(plan.ToUpdate, e.Item)
			plan.TotalCents += e.Item.AmountCents
		}
	}
	return plan
}
