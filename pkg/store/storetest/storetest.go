// Package storetest keeps test suites against storedefs.Store.
package storetest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"src.solrepl.sh/pkg/store/storedefs"
)

var (
	cmds     = []string{"uint a = 10", "a", "a + 1", "msg"}
	wantCmds = []storedefs.Cmd{
		{Text: "uint a = 10", Seq: 1},
		{Text: "a", Seq: 2},
		{Text: "a + 1", Seq: 3},
		{Text: "msg", Seq: 4}}
)

// TestCmd tests the input history API of a Store.
func TestCmd(t *testing.T, store storedefs.Store) {
	startSeq, err := store.NextCmdSeq()
	if startSeq != 1 || err != nil {
		t.Errorf("store.NextCmdSeq() -> %v, %v, want %v, nil", startSeq, err, 1)
	}

	for i, cmd := range cmds {
		wantSeq := startSeq + i
		seq, err := store.AddCmd(cmd)
		if seq != wantSeq || err != nil {
			t.Errorf("store.AddCmd(%v) -> %v, %v, want %v, nil",
				cmd, seq, err, wantSeq)
		}
	}

	endSeq, err := store.NextCmdSeq()
	wantedEndSeq := startSeq + len(cmds)
	if endSeq != wantedEndSeq || err != nil {
		t.Errorf("store.NextCmdSeq() -> %v, %v, want %v, nil",
			endSeq, err, wantedEndSeq)
	}

	cmd, err := store.Cmd(2)
	if cmd != "a" || err != nil {
		t.Errorf("store.Cmd(2) -> %q, %v, want %q, nil", cmd, err, "a")
	}
	_, err = store.Cmd(100)
	if err != storedefs.ErrNoMatchingCmd {
		t.Errorf("store.Cmd(100) -> error %v, want ErrNoMatchingCmd", err)
	}

	got, err := store.CmdsWithSeq(2, 4)
	if diff := cmp.Diff(wantCmds[1:3], got); diff != "" || err != nil {
		t.Errorf("store.CmdsWithSeq(2, 4) -> error %v, diff (-want +got):\n%s", err, diff)
	}

	got, err = store.LastCmds(2)
	if diff := cmp.Diff(wantCmds[2:], got); diff != "" || err != nil {
		t.Errorf("store.LastCmds(2) -> error %v, diff (-want +got):\n%s", err, diff)
	}
	got, err = store.LastCmds(100)
	if diff := cmp.Diff(wantCmds, got); diff != "" || err != nil {
		t.Errorf("store.LastCmds(100) -> error %v, diff (-want +got):\n%s", err, diff)
	}
}

// TestSession tests the saved session API of a Store.
func TestSession(t *testing.T, store storedefs.Store) {
	if _, err := store.Session("nope"); err != storedefs.ErrNoSession {
		t.Errorf("store.Session(%q) -> error %v, want ErrNoSession", "nope", err)
	}

	stmts := []string{"uint a = 10;", "uint b = a + 1;"}
	for _, name := range []string{"b", "a"} {
		if err := store.SaveSession(name, stmts); err != nil {
			t.Errorf("store.SaveSession(%q) -> %v", name, err)
		}
	}
	got, err := store.Session("a")
	if diff := cmp.Diff(stmts, got); diff != "" || err != nil {
		t.Errorf("store.Session(%q) -> error %v, diff (-want +got):\n%s", "a", err, diff)
	}

	if err := store.SaveSession("a", stmts[:1]); err != nil {
		t.Errorf("store.SaveSession(%q) -> %v", "a", err)
	}
	got, _ = store.Session("a")
	if diff := cmp.Diff(stmts[:1], got); diff != "" {
		t.Errorf("session not replaced (-want +got):\n%s", diff)
	}

	names, err := store.SessionNames()
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" || err != nil {
		t.Errorf("store.SessionNames() -> error %v, diff (-want +got):\n%s", err, diff)
	}

	if err := store.DelSession("b"); err != nil {
		t.Errorf("store.DelSession(%q) -> %v", "b", err)
	}
	if err := store.DelSession("b"); err != storedefs.ErrNoSession {
		t.Errorf("store.DelSession(%q) again -> %v, want ErrNoSession", "b", err)
	}
	names, _ = store.SessionNames()
	if diff := cmp.Diff([]string{"a"}, names); diff != "" {
		t.Errorf("store.SessionNames() after deletion (-want +got):\n%s", diff)
	}
}
