package effect

import (
	"fmt"
	"strings"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/outcome"
)

// Generator turns outcomes into effect batches. It only reads the catalog
// for display names.
type Generator struct {
	Catalog *data.Catalog
}

// NewGenerator returns a generator over catalog.
func NewGenerator(c *data.Catalog) *Generator {
	if c == nil {
		c = &data.Catalog{}
	}
	return &Generator{Catalog: c}
}

// Generate is pure and order preserving: state deltas, narrative, audio,
// telemetry, quest trigger.
func (g *Generator) Generate(o outcome.Outcome) []Effect {
	var b batch
	switch v := o.(type) {
	case outcome.CombatOutcome:
		g.combat(&b, v)
	case outcome.SkillOutcome:
		g.skill(&b, v)
	case outcome.ItemOutcome:
		g.item(&b, v)
	case outcome.HarvestOutcome:
		g.harvest(&b, v)
	case outcome.CraftOutcome:
		g.craft(&b, v)
	case outcome.BuildOutcome:
		g.build(&b, v)
	case outcome.MoveOutcome:
		g.move(&b, v)
	case outcome.RestOutcome:
		g.rest(&b, v)
	case outcome.WaitOutcome:
		b.say(narrative.KindAction, "You wait and watch the world go by.")
	case outcome.EquipOutcome:
		g.equip(&b, v)
	case outcome.DropOutcome:
		g.drop(&b, v)
	case outcome.FuseOutcome:
		g.fuse(&b, v)
	default:
		return nil
	}
	b.telemetry(string(o.Kind())+"_resolved", map[string]any{
		"actor":   o.ActorID(),
		"target":  o.TargetID(),
		"success": o.Level().String(),
	})
	b.quest = &QuestTrigger{Reason: string(o.Kind())}
	return b.effects()
}

// batch collects effects per kind so the output order never depends on the
// order the generator code happens to emit them in.
type batch struct {
	deltas []Effect
	lines  []Effect
	audio  []Effect
	tele   []Effect
	quest  *QuestTrigger
}

func (b *batch) delta(d engine.Delta) {
	if d.Empty() {
		return
	}
	b.deltas = append(b.deltas, StatDelta{Delta: d})
}

func (b *batch) say(kind narrative.Kind, format string, args ...any) {
	b.lines = append(b.lines, NarrativeLine{Text: fmt.Sprintf(format, args...), Style: kind})
}

func (b *batch) cue(name string) {
	if name != "" {
		b.audio = append(b.audio, AudioCue{Name: name})
	}
}

func (b *batch) telemetry(name string, fields map[string]any) {
	b.tele = append(b.tele, TelemetryEvent{Name: name, Fields: fields})
}

func (b *batch) effects() []Effect {
	out := make([]Effect, 0, len(b.deltas)+len(b.lines)+len(b.audio)+len(b.tele)+1)
	out = append(out, b.deltas...)
	out = append(out, b.lines...)
	out = append(out, b.audio...)
	out = append(out, b.tele...)
	if b.quest != nil {
		out = append(out, *b.quest)
	}
	return out
}

func (g *Generator) itemName(id string) string {
	it, _ := g.Catalog.Item(id)
	if it.Name == "" {
		return id
	}
	return it.Name
}

func (g *Generator) lootText(drops []outcome.Drop) string {
	parts := make([]string, 0, len(drops))
	for _, d := range drops {
		parts = append(parts, fmt.Sprintf("%d %s", d.Quantity, g.itemName(d.Item)))
	}
	return strings.Join(parts, ", ")
}

func lootItems(drops []outcome.Drop) map[string]int {
	if len(drops) == 0 {
		return nil
	}
	m := make(map[string]int, len(drops))
	for _, d := range drops {
		m[d.Item] += d.Quantity
	}
	return m
}

func counter(name string) map[string]int {
	return map[string]int{name: 1}
}

func (g *Generator) combat(b *batch, o outcome.CombatOutcome) {
	self := engine.Delta{
		ActorID: o.Actor,
		Stamina: -o.StaminaCost,
		HP:      -o.Retaliation,
		Items:   lootItems(o.Loot),
	}
	if o.Defeated {
		self.Counters = counter("kills")
	}
	b.delta(self)
	switch {
	case o.Defeated || o.Fled:
		b.delta(engine.Delta{ActorID: o.Target, Remove: true})
	default:
		b.delta(engine.Delta{ActorID: o.Target, HP: -o.FinalDamage})
	}

	if o.FinalDamage == 0 {
		b.say(narrative.KindAction, "You swing at the %s and miss.", o.TargetName)
		b.cue("miss")
	} else {
		b.say(narrative.KindAction, "You strike the %s for %d damage.", o.TargetName, o.FinalDamage)
		b.cue("hit")
	}
	for _, p := range o.Penalties {
		b.say(narrative.KindSystem, "The %s hampers your blow.", p.Name)
	}
	switch {
	case o.Defeated:
		b.say(narrative.KindNarrative, "The %s falls.", o.TargetName)
		b.cue("creature_defeated")
		if len(o.Loot) > 0 {
			b.say(narrative.KindSystem, "You collect %s.", g.lootText(o.Loot))
		}
	case o.Fled:
		b.say(narrative.KindNarrative, "The %s flees into the wilds.", o.TargetName)
	case o.Retaliation > 0:
		b.say(narrative.KindNarrative, "The %s strikes back for %d damage.", o.TargetName, o.Retaliation)
		b.cue("player_hurt")
	}
	b.telemetry("combat", map[string]any{
		"target":      o.Target,
		"damage":      o.FinalDamage,
		"environment": o.EnvironmentMultiplier,
		"defeated":    o.Defeated,
		"fled":        o.Fled,
	})
}

func changeDelta(c outcome.Change) engine.Delta {
	d := engine.Delta{
		ActorID: c.ActorID,
		HP:      c.HP,
		Stamina: c.Stamina,
		Mana:    c.Mana,
		Hunger:  c.Hunger,
		Remove:  c.Defeated && c.ActorID != engine.PlayerID,
	}
	if c.Status != nil {
		d.AddStatuses = []engine.StatusEffect{*c.Status}
	}
	return d
}

func (g *Generator) changes(b *batch, cs []outcome.Change, self engine.Delta) {
	for i, c := range cs {
		d := changeDelta(c)
		if i == 0 {
			d.Items = self.Items
			d.Counters = self.Counters
		}
		if c.Defeated && c.ActorID != engine.PlayerID {
			if d.Counters == nil {
				d.Counters = make(map[string]int)
			}
			d.Counters["kills"]++
		}
		b.delta(d)
	}
}

func (g *Generator) skill(b *batch, o outcome.SkillOutcome) {
	g.changes(b, o.Changes, engine.Delta{Counters: counter("casts")})
	switch {
	case o.Backfired:
		b.say(narrative.KindAction, "%s backfires and burns you for %d.", o.SkillName, o.BackfireDamage)
		b.cue("backfire")
	case !o.Level().Succeeded():
		b.say(narrative.KindAction, "You try %s, but it fizzles.", o.SkillName)
		b.cue("fizzle")
	case o.Gamble != nil && o.Gamble.Won:
		b.say(narrative.KindAction, "You gamble with %s and fortune smiles: you are fully restored.", o.SkillName)
		b.cue(orDefault(o.Audio, "spell"))
	case o.Gamble != nil:
		b.say(narrative.KindAction, "You gamble with %s and lose; a curse settles on you.", o.SkillName)
		b.cue("curse")
	default:
		b.say(narrative.KindAction, "You cast %s (%s, %d).", o.SkillName, strings.ToLower(string(o.Effect)), o.Amount)
		b.cue(orDefault(o.Audio, "spell"))
	}
	if o.TargetDefeated {
		b.say(narrative.KindNarrative, "Your target collapses.")
	}
	b.telemetry("skill", map[string]any{
		"skill":     o.SkillID,
		"amount":    o.Amount,
		"backfired": o.Backfired,
	})
}

func (g *Generator) item(b *batch, o outcome.ItemOutcome) {
	self := engine.Delta{Counters: counter("items_used")}
	if o.Consumed {
		self.Items = map[string]int{o.ItemID: -1}
	}
	g.changes(b, o.Changes, self)
	if o.Level().Succeeded() {
		b.say(narrative.KindAction, "You use the %s.", o.ItemName)
	} else {
		b.say(narrative.KindAction, "You fumble the %s; it does nothing.", o.ItemName)
	}
	if o.Consumed {
		b.say(narrative.KindSystem, "The %s is used up.", o.ItemName)
	}
	b.cue(orDefault(o.Audio, "item"))
	b.telemetry("item_used", map[string]any{"item": o.ItemID, "consumed": o.Consumed})
}

func (g *Generator) harvest(b *batch, o outcome.HarvestOutcome) {
	b.delta(engine.Delta{
		ActorID:  o.Actor,
		Stamina:  -o.StaminaCost,
		Items:    lootItems(o.Loot),
		Counters: counter("harvests"),
	})
	if o.TargetRemoved {
		b.delta(engine.Delta{ActorID: o.Target, Remove: true})
	} else if o.Part != "" {
		b.delta(engine.Delta{ActorID: o.Target, Parts: map[string]int{o.Part: o.RemainingAfter}})
	}

	what := o.TargetName
	if o.Part != "" {
		what = fmt.Sprintf("the %s of the %s", o.Part, o.TargetName)
	}
	if len(o.Loot) > 0 {
		b.say(narrative.KindAction, "You harvest %s and gather %s.", what, g.lootText(o.Loot))
	} else {
		b.say(narrative.KindAction, "You harvest %s but come away empty-handed.", what)
	}
	if o.AllPartsExhausted {
		b.say(narrative.KindSystem, "Nothing is left on the %s.", o.TargetName)
	}
	b.cue("harvest")
	b.telemetry("harvest", map[string]any{"target": o.Target, "part": o.Part, "drops": len(o.Loot)})
}

func negate(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = -v
	}
	return out
}

func (g *Generator) craft(b *batch, o outcome.CraftOutcome) {
	items := negate(o.Consumed)
	for k, v := range lootItems(o.Produced) {
		items[k] += v
	}
	d := engine.Delta{ActorID: o.Actor, Stamina: -o.StaminaCost, Items: items}
	if len(o.Produced) > 0 {
		d.Counters = counter("crafts")
	}
	if len(d.Items) == 0 {
		d.Items = nil
	}
	b.delta(d)

	switch {
	case o.Lost:
		b.say(narrative.KindAction, "Your attempt at %s falls apart; the materials are ruined.", o.RecipeName)
		b.cue("craft_fail")
	case len(o.Produced) > 0:
		b.say(narrative.KindAction, "You craft %s.", g.lootText(o.Produced))
		b.cue("craft")
	default:
		b.say(narrative.KindAction, "You fail to make %s, but keep your materials.", o.RecipeName)
	}
	b.telemetry("craft", map[string]any{"recipe": o.RecipeID, "produced": len(o.Produced), "lost": o.Lost})
}

func (g *Generator) build(b *batch, o outcome.BuildOutcome) {
	b.delta(engine.Delta{
		ActorID:  o.Actor,
		Stamina:  -o.StaminaCost,
		Items:    negate(o.Consumed),
		Counters: counter("builds"),
	})
	b.say(narrative.KindAction, "You build a %s.", o.StructureName)
	b.cue("build")
	b.telemetry("build", map[string]any{"structure": o.StructureID, "x": o.Position.X, "y": o.Position.Y})
}

func (g *Generator) move(b *batch, o outcome.MoveOutcome) {
	to := o.To
	b.delta(engine.Delta{ActorID: o.Actor, Stamina: -o.StaminaCost, Move: &to, Counters: counter("steps")})
	if o.Terrain != "" {
		b.say(narrative.KindAction, "You walk into the %s.", o.Terrain)
	} else {
		b.say(narrative.KindAction, "You walk on.")
	}
	b.cue("step")
}

func (g *Generator) rest(b *batch, o outcome.RestOutcome) {
	b.delta(engine.Delta{ActorID: o.Actor, HP: o.HPRestored, Stamina: o.StaminaRestored, Counters: counter("rests")})
	b.say(narrative.KindAction, "You rest and recover %d stamina.", o.StaminaRestored)
}

func (g *Generator) equip(b *batch, o outcome.EquipOutcome) {
	if o.Kind() == outcome.ActionUnequip {
		b.delta(engine.Delta{ActorID: o.Actor, Items: map[string]int{o.Item: 1}, Equip: map[string]string{o.Slot: ""}})
		b.say(narrative.KindAction, "You put away the %s.", o.ItemName)
		return
	}
	items := map[string]int{o.Item: -1}
	if o.Previous != "" {
		items[o.Previous]++
	}
	b.delta(engine.Delta{ActorID: o.Actor, Items: items, Equip: map[string]string{o.Slot: o.Item}})
	b.say(narrative.KindAction, "You equip the %s.", o.ItemName)
	b.cue("equip")
}

func (g *Generator) drop(b *batch, o outcome.DropOutcome) {
	b.delta(engine.Delta{ActorID: o.Actor, Items: map[string]int{o.Item: -o.Quantity}})
	b.say(narrative.KindAction, "You drop %d %s.", o.Quantity, o.ItemName)
}

func (g *Generator) fuse(b *batch, o outcome.FuseOutcome) {
	items := make(map[string]int)
	for _, in := range o.Inputs {
		items[in]--
	}
	items[o.Result.ID]++
	b.delta(engine.Delta{ActorID: o.Actor, Items: items})
	if o.Narrative != "" {
		b.say(narrative.KindNarrative, "%s", o.Narrative)
	}
	b.say(narrative.KindSystem, "You obtain %s.", o.Result.Name)
	b.cue("fusion")
	b.telemetry("fusion", map[string]any{"inputs": o.Inputs, "result": o.Result.ID})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
