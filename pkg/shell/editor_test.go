package shell

import (
	"testing"

	. "src.solrepl.sh/pkg/tt"
)

func TestCompleteWord(t *testing.T) {
	Test(t, Fn("completeWord", completeWord), Table{
		Args(".s", 2).Rets("", []string{".save", ".sessions"}, ""),
		Args(".h", 2).Rets("", []string{".history", ".help"}, ""),
		Args(".lo x", 3).Rets("", []string{".load"}, " x"),
		Args("uint a", 6).Rets("uint a", []string(nil), ""),
		Args(".save s", 7).Rets(".save s", []string(nil), ""),
		Args("x + msg.s", 9).Rets("x + ", []string{"msg.sender", "msg.sig"}, ""),
		Args("tx. + 1", 3).Rets("", []string{"tx.gasprice", "tx.origin"}, " + 1"),
		Args("foo.b", 5).Rets("foo.b", []string(nil), ""),
	})
}

func TestParseCommand(t *testing.T) {
	name := func(line string) (string, string, bool) {
		cmd, arg, ok := parseCommand(line)
		if !ok {
			return "", arg, false
		}
		return cmd.name, arg, true
	}
	Test(t, Fn("parseCommand", name), Table{
		Args("quit").Rets(".quit", "", true),
		Args("  clear  ").Rets(".reset", "", true),
		Args(".save  mine ").Rets(".save", "mine", true),
		Args(".nope x").Rets(".nope", "", true),
		Args("uint a = 1").Rets("", "", false),
		Args("quitting").Rets("", "", false),
	})
}
