package game

import "errors"

// Rejections returned by Apply. None of them mutate the room.
var (
	ErrGameNotStarted = errors.New("game has not started")
	ErrNoDiscard      = errors.New("discard pile is empty")
	ErrNotYourTurn    = errors.New("it is not your turn")
	ErrUnknownCard    = errors.New("unknown card")
	ErrCardNotInHand  = errors.New("card is not in your hand")
	ErrIllegalCard    = errors.New("card does not match the top of the discard pile")
	ErrComboPending   = errors.New("a draw two combo is pending: stack a draw two or draw")
	ErrChainMismatch  = errors.New("card does not continue the open taki")
	ErrColorRequired  = errors.New("change color needs a chosen color")
)

// Deal failures. The room is left untouched when either is returned.
var (
	ErrNoSeedCard        = errors.New("no numbered card available to seed the discard pile")
	ErrInsufficientCards = errors.New("not enough cards in the deck to deal")
)

// IsRejection reports whether err should be reported back to the acting player.
// A missing discard pile means the table is not set and the action is dropped silently.
func IsRejection(err error) bool {
	return err != nil && !errors.Is(err, ErrNoDiscard)
}
