package receiving

import (
	"context"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
)

// SlotState is the state of the editing slot.
type SlotState string

const (
	SlotIdle         SlotState = "idle"
	SlotItemSelected SlotState = "item_selected"
	SlotValidating   SlotState = "validating"
)

// AddFunc receives a line after successful assembly.
type AddFunc func(ctx context.Context, line ReceivingLine) error

// EditSlot holds the single item currently being edited.
//
//	Idle --Select--> ItemSelected --Commit--> Validating --ok--> Idle
//	                      ^  |                     |
//	                      |  +--Update             +--fail--> ItemSelected
//	                      +------------------------ Cancel returns to Idle from any state
//
// EditSlot is not safe for concurrent use; the owning session serializes access.
type EditSlot struct {
	state   SlotState
	item    ItemSnapshot
	input   ReceivingLineInput
	figures Figures

	policy Policy
	ids    id.Generator
	today  func() types.Date
}

// NewEditSlot creates an idle slot. A nil today defaults to types.Today and a
// nil generator to UUIDs.
func NewEditSlot(policy Policy, ids id.Generator, today func() types.Date) *EditSlot {
	if ids == nil {
		ids = id.UUIDGenerator{}
	}
	if today == nil {
		today = types.Today
	}
	return &EditSlot{
		state:  SlotIdle,
		policy: policy,
		ids:    ids,
		today:  today,
	}
}

// State returns the current slot state.
func (s *EditSlot) State() SlotState { return s.state }

// Item returns the selected item, false when idle.
func (s *EditSlot) Item() (ItemSnapshot, bool) {
	if s.state == SlotIdle {
		return ItemSnapshot{}, false
	}
	return s.item, true
}

// Input returns the input of the item being edited.
func (s *EditSlot) Input() ReceivingLineInput { return s.input }

// Figures returns the figures computed by the last select, update or commit.
func (s *EditSlot) Figures() Figures { return s.figures }

// Select starts editing an item. The selling price defaults to the catalog
// price and the received date to today.
func (s *EditSlot) Select(item ItemSnapshot) (Figures, error) {
	if s.state != SlotIdle {
		return Figures{}, apperror.NewEditInProgress(s.item.ItemRef)
	}
	if item.ItemRef == "" {
		return Figures{}, apperror.NewValidation("item reference is required")
	}

	s.item = item
	s.input = ReceivingLineInput{
		ItemRef:      item.ItemRef,
		SellingPrice: item.SellingPrice,
		ReceivedDate: s.today(),
	}
	s.state = SlotItemSelected
	s.figures = Recompute(s.input, s.today(), s.policy)

	return s.figures, nil
}

// Update replaces the input of the selected item and recomputes the figures.
// The item itself cannot be swapped; cancel and select another instead.
func (s *EditSlot) Update(in ReceivingLineInput) (Figures, error) {
	if s.state != SlotItemSelected {
		return Figures{}, apperror.NewInvalidEditState("update", string(s.state))
	}
	if in.ItemRef == "" {
		in.ItemRef = s.item.ItemRef
	}
	if in.ItemRef != s.item.ItemRef {
		return Figures{}, apperror.NewValidation("item cannot change while editing").
			WithDetail("itemRef", s.item.ItemRef)
	}

	s.input = in
	s.figures = Recompute(s.input, s.today(), s.policy)

	return s.figures, nil
}

// Commit assembles the selected item and hands the line to onAdd. On success
// the slot returns to Idle. On failure it stays in ItemSelected with the
// figures of the failed attempt available through Figures.
func (s *EditSlot) Commit(ctx context.Context, onAdd AddFunc) (ReceivingLine, error) {
	if s.state != SlotItemSelected {
		return ReceivingLine{}, apperror.NewInvalidEditState("commit", string(s.state))
	}

	s.state = SlotValidating
	s.figures = Recompute(s.input, s.today(), s.policy)

	line, err := Assemble(s.input, s.figures, s.item, s.ids)
	if err != nil {
		s.state = SlotItemSelected
		return ReceivingLine{}, err
	}

	if onAdd != nil {
		if err := onAdd(ctx, line.Clone()); err != nil {
			s.state = SlotItemSelected
			return ReceivingLine{}, err
		}
	}

	s.reset()
	return line, nil
}

// Cancel discards the item being edited. Cancelling an idle slot is a no-op.
func (s *EditSlot) Cancel() {
	s.reset()
}

func (s *EditSlot) reset() {
	s.state = SlotIdle
	s.item = ItemSnapshot{}
	s.input = ReceivingLineInput{}
	s.figures = Figures{}
}
