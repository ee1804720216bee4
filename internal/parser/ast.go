package parser

// Command is one line typed at the prompt. Exactly one field is set.
type Command struct {
	Move    *MoveCmd    `parser:"( @@"`
	Attack  *AttackCmd  `parser:"| @@"`
	Use     *UseCmd     `parser:"| @@"`
	Cast    *CastCmd    `parser:"| @@"`
	Harvest *HarvestCmd `parser:"| @@"`
	Craft   *CraftCmd   `parser:"| @@"`
	Build   *BuildCmd   `parser:"| @@"`
	Rest    *RestCmd    `parser:"| @@"`
	Wait    *WaitCmd    `parser:"| @@"`
	Equip   *EquipCmd   `parser:"| @@"`
	Unequip *UnequipCmd `parser:"| @@"`
	Drop    *DropCmd    `parser:"| @@"`
	Fuse    *FuseCmd    `parser:"| @@"`
	Hint    *HintCmd    `parser:"| @@"`
	Menu    *MenuCmd    `parser:"| @@"`
	Help    *HelpCmd    `parser:"| @@"`
	Step    *StepCmd    `parser:"| @@ )"`
}

// MoveCmd walks one cell: "move north", "go ne".
type MoveCmd struct {
	Keyword   string `parser:"@(\"move\"|\"go\"|\"walk\")"`
	Direction string `parser:"@Ident"`
}

// StepCmd is a bare direction: "n", "southwest".
type StepCmd struct {
	Direction string `parser:"@(\"n\"|\"s\"|\"e\"|\"w\"|\"ne\"|\"nw\"|\"se\"|\"sw\"|\"north\"|\"south\"|\"east\"|\"west\"|\"northeast\"|\"northwest\"|\"southeast\"|\"southwest\")"`
}

// AttackCmd strikes an adjacent target.
type AttackCmd struct {
	Keyword string `parser:"@(\"attack\"|\"hit\")"`
	Target  string `parser:"@Ident"`
}

// UseCmd uses an item, optionally on a target.
type UseCmd struct {
	Keyword string `parser:"@(\"use\"|\"eat\"|\"drink\")"`
	Item    string `parser:"@Ident"`
	Target  string `parser:"( (\"on\"|\"at\") @Ident )?"`
}

// CastCmd casts a skill, optionally on a target.
type CastCmd struct {
	Keyword string `parser:"@\"cast\""`
	Skill   string `parser:"@Ident"`
	Target  string `parser:"( (\"on\"|\"at\") @Ident )?"`
}

// HarvestCmd gathers from a target, optionally from one named part.
type HarvestCmd struct {
	Keyword string `parser:"@(\"harvest\"|\"gather\")"`
	Part    string `parser:"( @Ident (\"from\"|\"of\") )?"`
	Target  string `parser:"@Ident"`
}

// CraftCmd follows a recipe.
type CraftCmd struct {
	Keyword string `parser:"@\"craft\""`
	Recipe  string `parser:"@Ident"`
}

// BuildCmd raises a structure on the current cell.
type BuildCmd struct {
	Keyword   string `parser:"@\"build\""`
	Structure string `parser:"@Ident"`
}

// RestCmd recovers stamina.
type RestCmd struct {
	Keyword string `parser:"@(\"rest\"|\"sleep\")"`
}

// WaitCmd lets a turn pass.
type WaitCmd struct {
	Keyword string `parser:"@\"wait\""`
}

// EquipCmd moves an item into its slot.
type EquipCmd struct {
	Keyword string `parser:"@(\"equip\"|\"wield\")"`
	Item    string `parser:"@Ident"`
}

// UnequipCmd empties a slot.
type UnequipCmd struct {
	Keyword string `parser:"@\"unequip\""`
	Slot    string `parser:"@Ident"`
}

// DropCmd leaves items on the ground; the count defaults to one.
type DropCmd struct {
	Keyword  string `parser:"@\"drop\""`
	Quantity int    `parser:"@Int?"`
	Item     string `parser:"@Ident"`
}

// FuseCmd combines two or more items: "fuse stick and stone".
type FuseCmd struct {
	Keyword string   `parser:"@\"fuse\""`
	Items   []string `parser:"@Ident ( (\"and\"|\",\") @Ident )+"`
}

// HintCmd asks for a nudge towards the next quest.
type HintCmd struct {
	Keyword string `parser:"@\"hint\""`
}

// MenuCmd returns to the main menu.
type MenuCmd struct {
	Keyword string `parser:"@(\"menu\"|\"quit\")"`
}

// HelpCmd lists commands, or the usage of one.
type HelpCmd struct {
	Keyword string `parser:"@\"help\""`
	Command string `parser:"@Ident?"`
}

// Name returns the verb of the parsed command.
func (c *Command) Name() string {
	switch {
	case c.Move != nil, c.Step != nil:
		return "move"
	case c.Attack != nil:
		return "attack"
	case c.Use != nil:
		return "use"
	case c.Cast != nil:
		return "cast"
	case c.Harvest != nil:
		return "harvest"
	case c.Craft != nil:
		return "craft"
	case c.Build != nil:
		return "build"
	case c.Rest != nil:
		return "rest"
	case c.Wait != nil:
		return "wait"
	case c.Equip != nil:
		return "equip"
	case c.Unequip != nil:
		return "unequip"
	case c.Drop != nil:
		return "drop"
	case c.Fuse != nil:
		return "fuse"
	case c.Hint != nil:
		return "hint"
	case c.Menu != nil:
		return "menu"
	case c.Help != nil:
		return "help"
	}
	return ""
}

// Direction returns the direction word of a move, bare or not.
func (c *Command) Direction() string {
	if c.Move != nil {
		return c.Move.Direction
	}
	if c.Step != nil {
		return c.Step.Direction
	}
	return ""
}
