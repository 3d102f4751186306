package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/chat"
	"github.com/jwebster45206/story-sim/pkg/clock"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/world"
)

type CommandType string

const (
	CmdLook       CommandType = "look"
	CmdGo         CommandType = "go"
	CmdTalk       CommandType = "talk"
	CmdWait       CommandType = "wait"
	CmdInventory  CommandType = "inventory"
	CmdObjectives CommandType = "objectives"
	CmdReflect    CommandType = "reflect"
	CmdListen     CommandType = "listen"
	CmdRead       CommandType = "read"
	CmdSleep      CommandType = "sleep"
	CmdTake       CommandType = "take"
	CmdDrop       CommandType = "drop"
	CmdSave       CommandType = "save"
	CmdLoad       CommandType = "load"
	CmdHelp       CommandType = "help"
	CmdQuit       CommandType = "quit"
	CmdNone       CommandType = "" // unrecognized input
)

const (
	msgNothingHappens = "Nothing happens."
	msgCantGo         = "You can't go there from here."
	msgNoSuchPlace    = "There is no such place."
	msgNotHere        = "They are not here."
	msgNoStore        = "Saving is not available."

	// maxWait bounds a single wait command to one day.
	maxWait = clock.TicksPerDay
)

var known = map[string]CommandType{
	"look": CmdLook, "l": CmdLook, "location": CmdLook,
	"go": CmdGo, "move": CmdGo, "walk": CmdGo,
	"talk": CmdTalk, "say": CmdTalk, "t": CmdTalk,
	"wait": CmdWait, "z": CmdWait,
	"inventory": CmdInventory, "i": CmdInventory,
	"objectives": CmdObjectives, "o": CmdObjectives,
	"reflect": CmdReflect, "think": CmdReflect,
	"listen": CmdListen,
	"read":   CmdRead,
	"sleep":  CmdSleep,
	"take":   CmdTake, "get": CmdTake,
	"drop": CmdDrop,
	"save": CmdSave,
	"load": CmdLoad,
	"help": CmdHelp, "h": CmdHelp, "?": CmdHelp,
	"quit": CmdQuit, "q": CmdQuit, "exit": CmdQuit,
}

// parseCommand splits input into a command and its argument. The verb is
// case-insensitive; the argument keeps its case.
func parseCommand(input string) (CommandType, string) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return CmdNone, ""
	}
	verb, arg, _ := strings.Cut(trimmed, " ")
	cmd, ok := known[strings.ToLower(verb)]
	if !ok {
		return CmdNone, ""
	}
	return cmd, strings.TrimSpace(arg)
}

// handler runs a command and returns how many ticks it spent.
type handler func(ctx context.Context, s *Session, arg string, res *Result) (int, error)

var handlers map[CommandType]handler

func init() {
	handlers = map[CommandType]handler{
		CmdLook:       handleLook,
		CmdGo:         handleGo,
		CmdTalk:       handleTalk,
		CmdWait:       handleWait,
		CmdInventory:  handleInventory,
		CmdObjectives: handleObjectives,
		CmdReflect:    handleReflect,
		CmdListen:     handleListen,
		CmdRead:       handleRead,
		CmdSleep:      handleSleep,
		CmdTake:       handleTake,
		CmdDrop:       handleDrop,
		CmdSave:       handleSave,
		CmdLoad:       handleLoad,
		CmdHelp:       handleHelp,
		CmdQuit:       handleQuit,
	}
}

func handleLook(_ context.Context, s *Session, _ string, res *Result) (int, error) {
	res.add(LineNarration, s.World.Describe())
	return 0, nil
}

func handleGo(_ context.Context, s *Session, arg string, res *Result) (int, error) {
	arg = strings.TrimPrefix(strings.TrimPrefix(arg, "to "), "the ")
	if arg == "" {
		res.add(LineMuted, "Go where?")
		return 0, nil
	}
	err := s.World.MovePlayer(arg)
	switch {
	case errors.Is(err, world.ErrUnknownLocation):
		res.add(LineMuted, msgNoSuchPlace)
		return 0, nil
	case errors.Is(err, world.ErrNotReachable), errors.Is(err, actor.ErrLocationNotAllowed):
		res.add(LineMuted, msgCantGo)
		return 0, nil
	case err != nil:
		return 0, err
	}
	res.add(LineNarration, s.World.Describe())
	return 1, nil
}

// handleTalk accepts "sonya: words", "to sonya words" or "sonya words".
func handleTalk(ctx context.Context, s *Session, arg string, res *Result) (int, error) {
	arg = strings.TrimPrefix(arg, "to ")
	npc, words, ok := chat.SplitSpeaker(arg)
	if !ok {
		npc, words, _ = strings.Cut(arg, " ")
	}
	if npc == "" || strings.TrimSpace(words) == "" {
		res.add(LineMuted, "Say what, and to whom?")
		return 0, nil
	}

	a, found := s.World.Actor(npc)
	if !found {
		res.add(LineMuted, msgNotHere)
		return 0, nil
	}
	reply, err := s.World.StartDialogueTurn(ctx, npc, words)
	switch {
	case errors.Is(err, world.ErrNotPresent), errors.Is(err, world.ErrUnknownActor):
		res.add(LineMuted, msgNotHere)
		return 0, nil
	case err != nil:
		res.add(LineMuted, err.Error())
		return 0, nil
	}
	res.say(s.World.Player().Name(), words)
	if narrative.IsSentinel(reply) {
		res.add(LineMuted, reply)
	} else {
		res.say(a.Name(), reply)
	}
	return 1, nil
}

func handleWait(_ context.Context, _ *Session, arg string, res *Result) (int, error) {
	n := 1
	if arg != "" {
		v, err := strconv.Atoi(strings.Fields(arg)[0])
		if err != nil || v < 1 {
			res.add(LineMuted, "Wait how long?")
			return 0, nil
		}
		n = min(v, maxWait)
	}
	res.add(LineNarration, "Time passes.")
	return n, nil
}

func handleInventory(_ context.Context, s *Session, _ string, res *Result) (int, error) {
	inv := s.World.Player().Inventory
	if len(inv) == 0 {
		res.add(LineNarration, "Your pockets are empty.")
		return 0, nil
	}
	names := make([]string, len(inv))
	for i, it := range inv {
		name := it.Name
		if item, ok := s.scen.Items[it.Name]; ok && item.Name != "" {
			name = item.Name
		}
		if it.Quantity > 1 {
			name = fmt.Sprintf("%s (%d)", name, it.Quantity)
		}
		names[i] = name
	}
	res.add(LineNarration, "You have:\n- "+strings.Join(names, "\n- "))
	return 0, nil
}

func handleObjectives(_ context.Context, s *Session, _ string, res *Result) (int, error) {
	player := s.World.Player()
	active := player.ActiveObjectives()
	completed := player.CompletedObjectives()
	if len(active) == 0 && len(completed) == 0 {
		res.add(LineNarration, "You have no aims.")
		return 0, nil
	}

	var sb strings.Builder
	for _, o := range active {
		sb.WriteString("- " + o.Description)
		if st, ok := o.Stage(o.CurrentStage); ok && st.Description != "" {
			sb.WriteString(": " + st.Description)
		}
		sb.WriteString("\n")
	}
	for _, o := range completed {
		sb.WriteString("- [done] " + o.Description + "\n")
	}
	res.add(LineNarration, strings.TrimRight(sb.String(), "\n"))
	return 0, nil
}

func handleReflect(ctx context.Context, s *Session, _ string, res *Result) (int, error) {
	addProse(res, s.World.Reflect(ctx))
	return 1, nil
}

func handleListen(ctx context.Context, s *Session, _ string, res *Result) (int, error) {
	text, err := s.World.Overhear(ctx)
	if errors.Is(err, world.ErrNotPresent) {
		res.add(LineMuted, "There is no one to listen to.")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	addProse(res, text)
	return 1, nil
}

func handleRead(ctx context.Context, s *Session, arg string, res *Result) (int, error) {
	if arg == "" {
		res.add(LineMuted, "Read what?")
		return 0, nil
	}
	if key, ok := s.World.ResolveItem(arg); ok && !s.World.Player().HasItem(key) {
		res.add(LineMuted, "You have nothing like that to read.")
		return 0, nil
	}
	addProse(res, s.World.Document(ctx, arg))
	return 1, nil
}

func handleSleep(ctx context.Context, s *Session, _ string, res *Result) (int, error) {
	addProse(res, s.World.Dream(ctx))
	return clock.TicksPerPeriod, nil
}

func handleTake(_ context.Context, s *Session, arg string, res *Result) (int, error) {
	if arg == "" {
		res.add(LineMuted, "Take what?")
		return 0, nil
	}
	if err := s.World.PickUpItem(arg, 1); err != nil {
		res.add(LineMuted, "You don't see that here.")
		return 0, nil
	}
	res.add(LineNarration, "Taken.")
	return 1, nil
}

func handleDrop(_ context.Context, s *Session, arg string, res *Result) (int, error) {
	if arg == "" {
		res.add(LineMuted, "Drop what?")
		return 0, nil
	}
	if err := s.World.DropItem(arg, 1); err != nil {
		res.add(LineMuted, "You aren't carrying that.")
		return 0, nil
	}
	res.add(LineNarration, "Dropped.")
	return 1, nil
}

func handleSave(ctx context.Context, s *Session, arg string, res *Result) (int, error) {
	if s.Store == nil {
		res.add(LineMuted, msgNoStore)
		return 0, nil
	}
	slot := s.slot(arg)
	if err := s.Store.Save(ctx, slot, s.World.Save()); err != nil {
		s.logger.Error("save failed", "slot", slot, "error", err)
		res.add(LineMuted, "The save failed.")
		return 0, nil
	}
	s.Slot = slot
	res.add(LineSystem, "Saved to "+slot+".")
	return 0, nil
}

func handleLoad(ctx context.Context, s *Session, arg string, res *Result) (int, error) {
	if s.Store == nil {
		res.add(LineMuted, msgNoStore)
		return 0, nil
	}
	slot := s.slot(arg)
	save, err := s.Store.Load(ctx, slot)
	if err != nil {
		s.logger.Error("load failed", "slot", slot, "error", err)
		res.add(LineMuted, "The save could not be read.")
		return 0, nil
	}
	if save == nil {
		res.add(LineMuted, "Nothing is saved in "+slot+".")
		return 0, nil
	}
	w, err := world.Restore(s.scen, save, s.opts...)
	if err != nil {
		s.logger.Error("restore failed", "slot", slot, "error", err)
		res.add(LineMuted, "The save does not fit this story.")
		return 0, nil
	}
	s.World = w
	s.Slot = slot
	res.add(LineSystem, "Loaded "+slot+".")
	res.add(LineNarration, w.Describe())
	return 0, nil
}

func handleHelp(_ context.Context, _ *Session, _ string, res *Result) (int, error) {
	res.add(LineSystem, strings.Join([]string{
		"look                  describe your surroundings",
		"go <place>            walk somewhere nearby",
		"talk <person>: <words> speak to someone here",
		"wait [n]              let time pass",
		"take / drop <item>    pick up or put down",
		"inventory, objectives what you carry and want",
		"reflect, listen, read <thing>, sleep",
		"save [slot], load [slot], quit",
	}, "\n"))
	return 0, nil
}

func handleQuit(_ context.Context, _ *Session, _ string, res *Result) (int, error) {
	res.Quit = true
	res.add(LineSystem, "Farewell.")
	return 0, nil
}

func (s *Session) slot(arg string) string {
	if arg = strings.TrimSpace(arg); arg != "" {
		return arg
	}
	if s.Slot != "" {
		return s.Slot
	}
	return DefaultSlot
}

func addProse(res *Result, text string) {
	if narrative.IsSentinel(text) {
		res.add(LineMuted, text)
		return
	}
	res.add(LineNarration, text)
}

// advance spends ticks and reports what the world did meanwhile.
func (s *Session) advance(ctx context.Context, ticks int, res *Result) {
	report := s.World.AdvanceTime(ctx, ticks)

	here := s.World.PlayerLocation()
	for _, key := range report.Moved {
		if a, ok := s.World.Actor(key); ok && a.Location == here {
			res.add(LineNarration, a.Name()+" arrives.")
		}
	}
	for _, text := range report.Narration {
		res.add(LineNarration, text)
	}
	if in := report.Interaction; in != nil {
		if narrative.IsSentinel(in.Text) {
			res.add(LineMuted, in.Text)
		} else {
			for _, line := range strings.Split(in.Text, "\n") {
				if speaker, text, ok := chat.SplitSpeaker(strings.TrimSpace(line)); ok {
					res.say(speaker, text)
				} else if line = strings.TrimSpace(line); line != "" {
					res.add(LineNarration, line)
				}
			}
		}
	}
	for _, r := range report.Rumors {
		res.add(LineSystem, "Rumor: "+r)
	}
}
