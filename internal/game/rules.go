// internal/game/rules.go
package game

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
)

// ActionKind tags what a player wants to do on their turn.
type ActionKind int

const (
	ActionDraw ActionKind = iota + 1
	ActionPlay
)

// Action is either a draw or a play of Card. For change_color, Card.Color is
// the color the player chooses.
type Action struct {
	Kind ActionKind
	Card models.Card
}

func DrawAction() Action                 { return Action{Kind: ActionDraw} }
func PlayAction(card models.Card) Action { return Action{Kind: ActionPlay, Card: card} }

// MarshalJSON encodes a draw as "draw" and a play as the card object.
func (a Action) MarshalJSON() ([]byte, error) {
	if a.Kind == ActionDraw {
		return []byte(`"draw"`), nil
	}
	return json.Marshal(a.Card)
}

// UnmarshalJSON accepts "draw" or a {color, value} card object.
func (a *Action) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "draw" {
			return fmt.Errorf("unknown action %q", s)
		}
		*a = DrawAction()
		return nil
	}
	var card models.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return fmt.Errorf("invalid card action: %w", err)
	}
	*a = PlayAction(card)
	return nil
}

// Verdict is a player's outcome when a game ends.
type Verdict string

const (
	VerdictWin  Verdict = "win"
	VerdictLose Verdict = "lose"
)

// Result describes an accepted action.
type Result struct {
	Played   *models.Card // the card as placed on the discard pile
	Drawn    int
	Winner   *models.Player
	Verdicts map[uuid.UUID]Verdict
}

// GameOver reports whether the action ended the game.
func (res Result) GameOver() bool {
	return res.Winner != nil
}

// Apply validates and applies one action for playerID. The caller must hold
// r.Mu. On error the room is unchanged.
func Apply(r *Room, playerID uuid.UUID, action Action) (Result, error) {
	top, ok := r.TopCard()
	if !ok {
		return Result{}, ErrNoDiscard
	}
	if !r.GameStarted {
		return Result{}, ErrGameNotStarted
	}
	if r.CurrentPlayer().ID != playerID {
		return Result{}, ErrNotYourTurn
	}
	if action.Kind != ActionDraw && action.Kind != ActionPlay {
		return Result{}, fmt.Errorf("%w: unknown action", ErrUnknownCard)
	}
	if action.Kind == ActionPlay && !action.Card.Value.Valid() {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCard, action.Card)
	}

	var (
		res Result
		err error
	)
	switch {
	case r.Combo > 0:
		res, err = applyCombo(r, playerID, action)
	case r.OpenTaki:
		res, err = applyChain(r, playerID, action, top)
	default:
		res, err = applyNormal(r, playerID, action, top)
	}
	if err != nil {
		return Result{}, err
	}

	if len(r.Hands[playerID]) == 0 {
		finishGame(r, playerID, &res)
	}
	return res, nil
}

// applyCombo: only stacking another draw_two or taking the penalty is allowed.
func applyCombo(r *Room, playerID uuid.UUID, action Action) (Result, error) {
	if action.Kind == ActionDraw {
		n := r.Combo
		Draw(r, playerID, n)
		r.Combo = 0
		r.AdvanceTurn()
		return Result{Drawn: n}, nil
	}
	if action.Card.Value != models.ValueDrawTwo {
		return Result{}, ErrComboPending
	}
	placed, err := playFromHand(r, playerID, action.Card)
	if err != nil {
		return Result{}, err
	}
	r.Combo += 2
	r.AdvanceTurn()
	return Result{Played: &placed}, nil
}

// applyChain: an open taki accepts cards of the same value, is closed by a
// change_color, or is closed by drawing.
func applyChain(r *Room, playerID uuid.UUID, action Action, top models.Card) (Result, error) {
	if action.Kind == ActionDraw {
		r.OpenTaki = false
		if top.Value == models.ValueTaki {
			r.AdvanceTurn()
		} else {
			resolveEffect(r, top)
		}
		return Result{}, nil
	}

	card := action.Card
	switch {
	case card.Value == models.ValueChangeColor:
		placed, err := playChangeColor(r, playerID, card)
		if err != nil {
			return Result{}, err
		}
		r.OpenTaki = false
		r.AdvanceTurn()
		return Result{Played: &placed}, nil
	case card.Value == top.Value:
		placed, err := playFromHand(r, playerID, card)
		if err != nil {
			return Result{}, err
		}
		resolveEffect(r, placed)
		return Result{Played: &placed}, nil
	}
	return Result{}, fmt.Errorf("%w: %s on %s", ErrChainMismatch, card, top)
}

func applyNormal(r *Room, playerID uuid.UUID, action Action, top models.Card) (Result, error) {
	if action.Kind == ActionDraw {
		Draw(r, playerID, 1)
		r.AdvanceTurn()
		return Result{Drawn: 1}, nil
	}

	card := action.Card
	if card.Value == models.ValueChangeColor {
		placed, err := playChangeColor(r, playerID, card)
		if err != nil {
			return Result{}, err
		}
		r.AdvanceTurn()
		return Result{Played: &placed}, nil
	}
	if card.Color != top.Color && card.Value != top.Value {
		return Result{}, fmt.Errorf("%w: %s on %s", ErrIllegalCard, card, top)
	}
	placed, err := playFromHand(r, playerID, card)
	if err != nil {
		return Result{}, err
	}
	resolveEffect(r, placed)
	return Result{Played: &placed}, nil
}

// resolveEffect applies the special effect of a card that just hit the discard pile.
func resolveEffect(r *Room, card models.Card) {
	switch card.Value {
	case models.ValueTaki:
		r.OpenTaki = true
	case models.ValueDrawTwo:
		r.Combo += 2
		r.AdvanceTurn()
	case models.ValueReverse:
		r.FlipDirection()
		r.AdvanceTurn()
	case models.ValueSkip:
		r.AdvanceTurn()
		r.AdvanceTurn()
	case models.ValuePlus:
		// same player goes again
	default:
		r.AdvanceTurn()
	}
}

func playChangeColor(r *Room, playerID uuid.UUID, card models.Card) (models.Card, error) {
	if !card.Color.Valid() {
		return models.Card{}, ErrColorRequired
	}
	return playFromHand(r, playerID, card)
}

// playFromHand moves the first matching card from the hand to the discard
// pile. Colorless cards match on value and are placed with card's color.
func playFromHand(r *Room, playerID uuid.UUID, card models.Card) (models.Card, error) {
	hand := r.Hands[playerID]
	idx := -1
	for i, c := range hand {
		if c.Value != card.Value {
			continue
		}
		if c.IsColorless() || c.Color == card.Color {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Card{}, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	r.Hands[playerID] = append(hand[:idx], hand[idx+1:]...)
	r.Discard = append(r.Discard, card)
	return card, nil
}

func finishGame(r *Room, winnerID uuid.UUID, res *Result) {
	res.Verdicts = make(map[uuid.UUID]Verdict, len(r.Players))
	for _, p := range r.Players {
		if p.ID == winnerID {
			winner := p
			res.Winner = &winner
			res.Verdicts[p.ID] = VerdictWin
		} else {
			res.Verdicts[p.ID] = VerdictLose
		}
	}
	r.GameStarted = false
}

// Forfeit ends a running game in favor of the last remaining player. It is
// used when leavers bring the table below two players.
func Forfeit(r *Room) Result {
	var res Result
	if !r.GameStarted || len(r.Players) == 0 {
		r.GameStarted = false
		return res
	}
	finishGame(r, r.Players[0].ID, &res)
	return res
}
