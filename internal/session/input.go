package session

import (
	"context"
	"strings"

	"github.com/suderio/dreamland/internal/parser"
)

// Reply is what one typed line produced. Lines holds text that is not part
// of the story, such as help output.
type Reply struct {
	Verb   string
	Result *Result
	Lines  []string
}

// SyntaxError is returned for lines the grammar does not accept. Its
// message is the usage guidance for the verb typed.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string { return e.Err.Error() }
func (e *SyntaxError) Unwrap() error { return e.Err }

// Execute parses a command line and dispatches it to the matching handler.
func (s *Session) Execute(ctx context.Context, line string) (Reply, error) {
	cmd, err := parser.Parse(line)
	if err != nil {
		return Reply{}, &SyntaxError{Err: err}
	}
	reply := Reply{Verb: cmd.Name()}

	var res *Result
	switch {
	case cmd.Help != nil:
		reply.Lines = help(cmd.Help.Command)
		return reply, nil
	case cmd.Menu != nil:
		return reply, s.ReturnToMenu(ctx)
	case cmd.Hint != nil:
		res, err = s.QuestHint(ctx)
	case cmd.Move != nil, cmd.Step != nil:
		res, err = s.Move(ctx, Request{Direction: cmd.Direction()})
	case cmd.Attack != nil:
		res, err = s.Attack(ctx, Request{Target: cmd.Attack.Target})
	case cmd.Use != nil:
		res, err = s.UseItem(ctx, Request{Item: cmd.Use.Item, Target: cmd.Use.Target})
	case cmd.Cast != nil:
		res, err = s.UseSkill(ctx, Request{Skill: cmd.Cast.Skill, Target: cmd.Cast.Target})
	case cmd.Harvest != nil:
		res, err = s.Harvest(ctx, Request{Target: cmd.Harvest.Target, Part: cmd.Harvest.Part})
	case cmd.Craft != nil:
		res, err = s.Craft(ctx, Request{Recipe: cmd.Craft.Recipe})
	case cmd.Build != nil:
		res, err = s.Build(ctx, Request{Structure: cmd.Build.Structure})
	case cmd.Rest != nil:
		res, err = s.Rest(ctx, Request{})
	case cmd.Wait != nil:
		res, err = s.Wait(ctx, Request{})
	case cmd.Equip != nil:
		res, err = s.Equip(ctx, Request{Item: cmd.Equip.Item})
	case cmd.Unequip != nil:
		res, err = s.Unequip(ctx, Request{Slot: cmd.Unequip.Slot})
	case cmd.Drop != nil:
		res, err = s.Drop(ctx, Request{Item: cmd.Drop.Item, Quantity: cmd.Drop.Quantity})
	case cmd.Fuse != nil:
		res, err = s.Fuse(ctx, Request{Inputs: cmd.Fuse.Items})
	}
	reply.Result = res
	return reply, err
}

func help(verb string) []string {
	if verb == "" {
		return parser.Help()
	}
	if u, ok := parser.Usage[strings.ToLower(verb)]; ok {
		return []string{u}
	}
	return []string{"No such command: " + verb}
}
