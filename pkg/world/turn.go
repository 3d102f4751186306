package world

import (
	"context"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/chat"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

// TurnReport is what happened while time advanced.
type TurnReport struct {
	Tick          int
	PeriodChanged bool
	Moved         []string     // NPCs that followed their schedule
	Fired         string       // id of the event that fired, if any
	Narration     []string     // provider text produced by the fired event
	Interaction   *Interaction // ambient NPC conversation, if one happened
	Rumors        []string     // rumors learned this turn
}

// Interaction is an exchange between two NPCs the player overheard.
type Interaction struct {
	Participants [2]string
	Text         string
}

// AdvanceTime moves the clock forward by units (at least one), moves NPCs
// onto their schedules when the period changes, runs one event sweep and
// then the ambient interaction check.
func (w *World) AdvanceTime(ctx context.Context, units int) TurnReport {
	if ctx == nil {
		ctx = context.Background()
	}
	units = max(units, 1)
	w.ctx = ctx
	defer func() { w.ctx = context.Background() }()

	var report TurnReport
	report.PeriodChanged = w.clock.Advance(units)
	report.Tick = w.clock.Tick
	if report.PeriodChanged {
		report.Moved = w.followSchedules(w.clock.Period())
	}

	w.pending = nil
	if id, ok := w.engine.Evaluate(w.clock.Tick); ok {
		report.Fired = id
		report.Narration = w.pending
		w.logger.Info("story event fired", "event_id", id, "tick", w.clock.Tick)
	}
	w.pending = nil

	w.idleTicks += units
	if in := w.ambientInteraction(ctx); in != nil {
		report.Interaction = in
		if !narrative.IsSentinel(in.Text) {
			report.Rumors = w.recordRumors(in.Text)
		}
	}
	return report
}

// ambientInteraction has two NPCs at the player's location talk when
// enough ticks have passed and the roll succeeds. Once the threshold is
// passed the counter resets whether or not they talk.
func (w *World) ambientInteraction(ctx context.Context) *Interaction {
	here := w.Occupants(w.PlayerLocation())
	if len(here) < 2 || w.chance <= 0 || w.idleTicks <= w.threshold {
		return nil
	}
	w.idleTicks = 0
	if w.rng.Float64() >= w.chance {
		return nil
	}

	pick := w.rng.Perm(len(here))
	a, b := w.actors[here[pick[0]]], w.actors[here[pick[1]]]

	req := w.baseRequest(narrative.KindInteraction)
	req.Speaker = a.Name()
	req.Listener = b.Name()
	req.Participants = []string{a.Name(), b.Name()}
	req.History = a.History(here[pick[1]])
	text := w.generate(ctx, req)

	in := &Interaction{Participants: [2]string{here[pick[0]], here[pick[1]]}, Text: text}
	if narrative.IsSentinel(text) {
		return in
	}
	for _, line := range strings.Split(text, "\n") {
		speaker, said, ok := chat.SplitSpeaker(strings.TrimSpace(line))
		if !ok || said == "" {
			continue
		}
		switch {
		case strings.EqualFold(speaker, a.Name()):
			a.RecordLine(here[pick[1]], a.Name(), said)
			b.RecordLine(here[pick[0]], a.Name(), said)
		case strings.EqualFold(speaker, b.Name()):
			a.RecordLine(here[pick[1]], b.Name(), said)
			b.RecordLine(here[pick[0]], b.Name(), said)
		}
	}
	w.logger.Debug("ambient interaction", "participants", []string{a.Name(), b.Name()})
	return in
}
