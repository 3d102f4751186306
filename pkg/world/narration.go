package world

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/chat"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

// baseRequest fills the scene fields shared by every request kind.
func (w *World) baseRequest(kind narrative.Kind) narrative.Request {
	req := narrative.Request{
		Kind:      kind,
		Story:     w.scen.Story,
		TimeOfDay: w.clock.String(),
		KeyEvents: w.KeyEvents(),
	}
	if n := w.scen.Narrator; n != nil {
		req.Voice = n.VoiceGuide()
		req.Rating = n.Rating
	}
	if loc, ok := w.scen.Location(w.PlayerLocation()); ok {
		req.Location = loc.Name
		req.Scene = loc.Describe(w.clock.Period())
	}
	for _, key := range w.Occupants(w.PlayerLocation()) {
		req.Participants = append(req.Participants, w.actors[key].Name())
	}
	return req
}

func (w *World) generate(ctx context.Context, req narrative.Request) string {
	if ctx == nil {
		ctx = context.Background()
	}
	text := strings.TrimSpace(w.provider.Generate(ctx, req))
	if narrative.IsSentinel(text) {
		w.logger.Debug("narrative unavailable", "kind", req.Kind, "text", text)
	}
	return text
}

// StartDialogueTurn has the player say utterance to npc and returns the
// reply. The relationship is scored from the player's words whether or
// not the provider answers; conversation histories only grow when it
// does.
func (w *World) StartDialogueTurn(ctx context.Context, npc, utterance string) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if err := chat.ValidateUtterance(utterance); err != nil {
		return "", err
	}
	key, a, err := w.lookup(npc)
	if err != nil {
		return "", err
	}
	if npc == "" || key == w.player {
		return "", fmt.Errorf("cannot talk to yourself: %w", ErrUnknownActor)
	}
	if a.Location != w.PlayerLocation() {
		return "", fmt.Errorf("%s: %w", a.Name(), ErrNotPresent)
	}

	player := w.Player()
	delta := actor.ScoreUtterance(utterance)
	if delta != 0 {
		a.AdjustRelationship(delta)
		w.logger.Debug("relationship changed", "actor", key, "delta", delta, "relationship", a.Relationship)
	}

	req := w.baseRequest(narrative.KindDialogue)
	req.Speaker = a.Name()
	req.Listener = player.Name()
	req.Persona = a.Template.Persona
	req.ApparentState = string(a.State)
	req.Relationship = a.Relationship
	req.Memory = append([]string(nil), a.Memory...)
	req.History = a.History(w.player)
	req.Utterance = utterance

	reply := w.generate(ctx, req)
	if narrative.IsSentinel(reply) {
		return reply, nil
	}
	if speaker, text, ok := chat.SplitSpeaker(reply); ok && strings.EqualFold(speaker, a.Name()) {
		reply = text
	}

	a.RecordLine(w.player, player.Name(), utterance)
	a.RecordLine(w.player, a.Name(), reply)
	player.RecordLine(key, player.Name(), utterance)
	player.RecordLine(key, a.Name(), reply)
	return reply, nil
}

// Reflect asks for the player's inner voice. A real reflection is kept
// in the player's memory.
func (w *World) Reflect(ctx context.Context) string {
	player := w.Player()
	req := w.playerRequest(narrative.KindReflection)
	text := w.generate(ctx, req)
	if !narrative.IsSentinel(text) {
		player.Remember("Thought: " + firstSentence(text))
	}
	return text
}

// Dream asks for a dream sequence, kept in memory like a reflection.
func (w *World) Dream(ctx context.Context) string {
	req := w.playerRequest(narrative.KindDream)
	text := w.generate(ctx, req)
	if !narrative.IsSentinel(text) {
		w.Player().Remember("Dreamt: " + firstSentence(text))
	}
	return text
}

// Atmosphere describes the scene around the player. Nothing is recorded.
func (w *World) Atmosphere(ctx context.Context) string {
	return w.generate(ctx, w.baseRequest(narrative.KindAtmosphere))
}

// Document produces an in-world text about subject. Reading it becomes a
// key event.
func (w *World) Document(ctx context.Context, subject string) string {
	req := w.playerRequest(narrative.KindDocument)
	req.Subject = subject
	text := w.generate(ctx, req)
	if !narrative.IsSentinel(text) && strings.TrimSpace(subject) != "" {
		w.AddKeyEvent(fmt.Sprintf("%s read %s.", w.Player().Name(), subject))
	}
	return text
}

// Overhear has an NPC at the player's location pass on gossip. Any
// rumor it carries is recorded.
func (w *World) Overhear(ctx context.Context) (string, error) {
	here := w.Occupants(w.PlayerLocation())
	if len(here) == 0 {
		return "", fmt.Errorf("nobody to overhear: %w", ErrNotPresent)
	}
	a := w.actors[here[w.rng.IntN(len(here))]]

	req := w.baseRequest(narrative.KindRumor)
	req.Speaker = a.Name()
	req.Listener = w.Player().Name()
	req.Persona = a.Template.Persona
	req.Memory = append([]string(nil), a.Memory...)
	text := w.generate(ctx, req)
	if narrative.IsSentinel(text) {
		return text, nil
	}
	if rumors := w.recordRumors(text); len(rumors) == 0 {
		// gossip asked for by name counts even without a marker word
		w.AddRumor(stripSpeaker(firstSentence(text)))
	}
	return text, nil
}

func (w *World) playerRequest(kind narrative.Kind) narrative.Request {
	player := w.Player()
	req := w.baseRequest(kind)
	req.Speaker = player.Name()
	req.Persona = player.Template.Persona
	req.ApparentState = string(player.State)
	req.Memory = append([]string(nil), player.Memory...)
	return req
}

// recordRumors keeps every line of text that carries a rumor keyword and
// returns the ones that were new.
func (w *World) recordRumors(text string) []string {
	var added []string
	keywords := w.scen.Rumors()
	for _, line := range strings.Split(text, "\n") {
		line = stripSpeaker(strings.TrimSpace(line))
		if line == "" || !actor.ContainsKeyword(line, keywords) {
			continue
		}
		if w.AddRumor(line) {
			added = append(added, line)
		}
	}
	return added
}

func stripSpeaker(line string) string {
	if _, text, ok := chat.SplitSpeaker(line); ok {
		return text
	}
	return line
}

// firstSentence trims text to its first sentence for memory entries.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 && i < len(text)-1 {
		return strings.TrimSpace(text[:i+1])
	}
	if line, _, ok := strings.Cut(text, "\n"); ok {
		return strings.TrimSpace(line)
	}
	return text
}
