package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/storyteller"
	"github.com/suderio/dreamland/internal/throttle"
)

// Move steps the player one cell. Moves pass the throttle before anything
// else is checked.
func (s *Session) Move(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionMove); err != nil {
		return nil, err
	}
	dir := throttle.ParseDirection(req.Direction)
	if !dir.Valid() {
		return nil, outcome.Reject(outcome.ActionMove, "%q is not a direction", req.Direction)
	}
	if !s.throttle.Offer(s.opts.Now(), dir) {
		return nil, ErrThrottled
	}

	dx, dy := dir.Offset()
	player := s.state.Player.Clone()
	dest := player.Position.Add(dx, dy)
	chunk, err := s.world.At(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %s: %w", dest.Key(), err)
	}
	for _, c := range s.state.CreaturesAt(dest) {
		if c.Alive() {
			return nil, outcome.Reject(outcome.ActionMove, "the %s is in the way", c.Name)
		}
	}
	o, err := s.calc.Move(player, dx, dy, chunk.Terrain, chunk.Walkable)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Attack strikes a creature next to the player.
func (s *Session) Attack(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionAttack); err != nil {
		return nil, err
	}
	target, err := s.find(outcome.ActionAttack, req.Target)
	if err != nil {
		return nil, err
	}
	player, foe := s.state.Player.Clone(), target.Clone()
	if err := s.calc.CheckCombat(player, foe); err != nil {
		return nil, err
	}
	roll, level := s.roll()
	o, err := s.calc.Combat(player, foe, roll, level, s.state.Environment(), s.opts.Source)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, foe)
}

// UseItem consumes or applies an inventory item, optionally on a target.
func (s *Session) UseItem(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionUseItem); err != nil {
		return nil, err
	}
	item, ok := s.catalog.Item(s.itemID(req.Item))
	if !ok {
		return nil, outcome.Reject(outcome.ActionUseItem, "you know of no %s", req.Item)
	}
	target, err := s.optionalTarget(outcome.ActionUseItem, req.Target)
	if err != nil {
		return nil, err
	}
	player := s.state.Player.Clone()
	if err := s.calc.CheckItem(player, item); err != nil {
		return nil, err
	}
	roll, level := s.roll()
	o, err := s.calc.UseItem(player, target, item, roll, level, s.opts.Source)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, target)
}

// UseSkill casts a skill, optionally on a target.
func (s *Session) UseSkill(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionSkill); err != nil {
		return nil, err
	}
	id, _ := lookup(s.catalog.Skills, req.Skill, func(k data.Skill) string { return k.Name })
	skill, ok := s.catalog.Skill(id)
	if !ok {
		return nil, outcome.Reject(outcome.ActionSkill, "you do not know %s", req.Skill)
	}
	target, err := s.optionalTarget(outcome.ActionSkill, req.Target)
	if err != nil {
		return nil, err
	}
	player := s.state.Player.Clone()
	if err := s.calc.CheckSkill(player, target, skill); err != nil {
		return nil, err
	}
	roll, level := s.roll()
	o, err := s.calc.Skill(player, target, skill, roll, level, s.opts.Source)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, target)
}

// Harvest gathers from a creature or plant, from one part when named.
func (s *Session) Harvest(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionHarvest); err != nil {
		return nil, err
	}
	target, err := s.find(outcome.ActionHarvest, req.Target)
	if err != nil {
		return nil, err
	}
	player, t := s.state.Player.Clone(), target.Clone()
	if err := s.calc.CheckHarvest(player, t, req.Part); err != nil {
		return nil, err
	}
	roll, level := s.roll()
	o, err := s.calc.Harvest(player, t, req.Part, roll, level, s.opts.Source)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, t)
}

// Craft works a recipe from the inventory.
func (s *Session) Craft(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionCraft); err != nil {
		return nil, err
	}
	id, _ := lookup(s.catalog.Recipes, req.Recipe, func(r data.Recipe) string { return r.Name })
	recipe, ok := s.catalog.Recipe(id)
	if !ok {
		return nil, outcome.Reject(outcome.ActionCraft, "there is no recipe for %s", req.Recipe)
	}
	player := s.state.Player.Clone()
	if err := s.calc.CheckCraft(player, recipe); err != nil {
		return nil, err
	}
	roll, level := s.roll()
	o, err := s.calc.Craft(player, recipe, roll, level)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Build raises a structure on the player's cell and records it on the map.
func (s *Session) Build(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionBuild); err != nil {
		return nil, err
	}
	id, _ := lookup(s.catalog.Structures, req.Structure, func(st data.Structure) string { return st.Name })
	structure, ok := s.catalog.Structure(id)
	if !ok {
		return nil, outcome.Reject(outcome.ActionBuild, "you do not know how to build %s", req.Structure)
	}
	o, err := s.calc.Build(s.state.Player.Clone(), structure)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Rest recovers stamina unless something hostile is adjacent.
func (s *Session) Rest(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionRest); err != nil {
		return nil, err
	}
	player := s.state.Player.Clone()
	var nearby []*engine.ActorState
	for _, id := range s.state.CreatureIDs() {
		if c := s.state.Creatures[id]; c.Position.Distance(player.Position) <= 1 {
			nearby = append(nearby, c.Clone())
		}
	}
	o, err := s.calc.Rest(player, nearby)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Wait lets one turn pass.
func (s *Session) Wait(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionWait); err != nil {
		return nil, err
	}
	o, err := s.calc.Wait(s.state.Player.Clone())
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Equip moves an item from the inventory into its slot.
func (s *Session) Equip(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionEquip); err != nil {
		return nil, err
	}
	item, _ := s.catalog.Item(s.itemID(req.Item))
	o, err := s.calc.Equip(s.state.Player.Clone(), item)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Unequip empties a slot back into the inventory.
func (s *Session) Unequip(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionUnequip); err != nil {
		return nil, err
	}
	o, err := s.calc.Unequip(s.state.Player.Clone(), strings.ToLower(strings.TrimSpace(req.Slot)))
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Drop leaves items on the player's cell.
func (s *Session) Drop(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionDrop); err != nil {
		return nil, err
	}
	item, _ := s.catalog.Item(s.itemID(req.Item))
	o, err := s.calc.Drop(s.state.Player.Clone(), item, req.Quantity)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, s.token(o, req), o, nil)
}

// Fuse asks the storyteller to invent an item from two or more inventory
// items. The fusion is committed when the answer arrives; the returned
// result only reports that the call is pending.
func (s *Session) Fuse(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(outcome.ActionFuse); err != nil {
		return nil, err
	}
	inputs := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		inputs[i] = s.itemID(in)
	}
	if err := s.calc.CheckFuse(s.state.Player.Clone(), inputs); err != nil {
		return nil, err
	}

	sreq := s.request(string(outcome.ActionFuse))
	sreq.Inputs = inputs
	svc := s.service()
	at, game := req.turn(s.state.Clock.Turn), s.game
	s.async(ctx, func(ctx context.Context) func() {
		resp, err := svc.Fuse(ctx, sreq)
		return func() { s.fused(ctx, at, game, inputs, resp, err) }
	})
	return &Result{Narrating: true}, nil
}

func (s *Session) fused(ctx context.Context, at, game int, inputs []string, resp storyteller.Response, err error) {
	if game != s.game || s.state.Over() {
		return
	}
	defer s.queue.Flush(s.log)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "fusion failed", "inputs", inputs, "error", err)
		s.queue.Enqueue("The items refuse to blend.", narrative.KindSystem)
		return
	case resp.NewItem == nil || resp.NewItem.ID == "":
		s.queue.Enqueue("Nothing comes of the fusion.", narrative.KindSystem)
		return
	case s.opts.StalePolicy != StaleApply && at != s.state.Clock.Turn:
		s.queue.Enqueue("The moment for that fusion has passed.", narrative.KindSystem)
		return
	}

	item := *resp.NewItem
	if item.Name == "" {
		item.Name = item.ID
	}
	if s.catalog.Items == nil {
		s.catalog.Items = make(map[string]data.Item)
	}
	s.catalog.Items[item.ID] = item

	o, err := s.calc.Fuse(s.state.Player.Clone(), inputs, item, resp.Narrative)
	if err != nil {
		if r, ok := outcome.IsRejection(err); ok {
			s.queue.Enqueue(r.Reason, narrative.KindSystem)
		}
		return
	}
	if resp.SystemMessage != "" {
		s.queue.Enqueue(resp.SystemMessage, narrative.KindSystem)
	}
	tok := dedup.Token{Kind: string(o.Kind()), Actor: o.ActorID(), Target: item.ID, Turn: s.state.Clock.Turn}
	if _, err := s.commit(ctx, tok, o, nil); err != nil {
		s.logger.WarnContext(ctx, "fusion commit failed", "error", err)
	}
}

// QuestHint asks the storyteller for a nudge towards the first open quest.
// It does not advance the turn.
func (s *Session) QuestHint(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(""); err != nil {
		return nil, err
	}
	sreq := s.request("quest_hint")
	var fallback string
	if open := s.quests.Pending(s.state); len(open) > 0 {
		q := open[0]
		sreq.Quest = &storyteller.QuestInfo{ID: q.ID, Name: q.Name, Description: q.Description, Hint: q.Hint}
		fallback = q.Hint
	}
	svc, game := s.service(), s.game
	s.async(ctx, func(ctx context.Context) func() {
		resp, err := svc.QuestHint(ctx, sreq)
		return func() {
			if game != s.game {
				return
			}
			text := resp.Narrative
			if err != nil {
				s.logger.WarnContext(ctx, "quest hint failed", "error", err)
				text = fallback
			}
			if text != "" {
				s.queue.Enqueue(text, narrative.KindMonologue)
			}
			if resp.SystemMessage != "" {
				s.queue.Enqueue(resp.SystemMessage, narrative.KindSystem)
			}
			s.queue.Flush(s.log)
		}
	})
	return &Result{Narrating: true}, nil
}

func (s *Session) service() storyteller.Service {
	if s.opts.Storyteller == nil {
		return storyteller.Offline{}
	}
	return s.opts.Storyteller
}

// find resolves a creature by id, then by name or template, nearest first.
func (s *Session) find(action outcome.ActionKind, ref string) (*engine.ActorState, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, outcome.Reject(action, "no target given")
	}
	if a, ok := s.state.Creatures[ref]; ok {
		return a, nil
	}
	here := s.state.Player.Position
	var best *engine.ActorState
	for _, id := range s.state.CreatureIDs() {
		c := s.state.Creatures[id]
		if !sameName(c.Name, ref) && !sameName(c.Template, ref) {
			continue
		}
		if best == nil || c.Position.Distance(here) < best.Position.Distance(here) {
			best = c
		}
	}
	if best == nil {
		return nil, outcome.Reject(action, "there is no %s here", ref)
	}
	return best, nil
}

func (s *Session) optionalTarget(action outcome.ActionKind, ref string) (*engine.ActorState, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}
	t, err := s.find(action, ref)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// itemID resolves what the player typed to a catalog id, falling back to
// the text itself for things only the inventory knows.
func (s *Session) itemID(ref string) string {
	if id, ok := lookup(s.catalog.Items, ref, func(it data.Item) string { return it.Name }); ok {
		return id
	}
	ref = strings.TrimSpace(ref)
	for id := range s.state.Player.Inventory {
		if sameName(id, ref) {
			return id
		}
	}
	return ref
}

// lookup matches ref against map keys, then display names.
func lookup[V any](m map[string]V, ref string, name func(V) string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if _, ok := m[ref]; ok {
		return ref, true
	}
	for id, v := range m {
		if sameName(id, ref) || sameName(name(v), ref) {
			return id, true
		}
	}
	return ref, false
}

// sameName compares case-insensitively, treating underscores as spaces.
func sameName(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(strings.ReplaceAll(a, "_", " "), strings.ReplaceAll(b, "_", " "))
}
