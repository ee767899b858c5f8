// Package storedefs contains definitions of the store API.
//
// It is a separate package so that packages that only depend on the store API
// does not need to depend on the concrete implementation.
package storedefs

import "errors"

// ErrNoMatchingCmd is the error returned when there is no line with a
// requested sequence number.
var ErrNoMatchingCmd = errors.New("no matching input line")

// ErrNoSession is the error returned when there is no saved session with a
// requested name.
var ErrNoSession = errors.New("no such saved session")

// Store is an interface satisfied by the storage service.
type Store interface {
	NextCmdSeq() (int, error)
	AddCmd(text string) (int, error)
	Cmd(seq int) (string, error)
	CmdsWithSeq(from, upto int) ([]Cmd, error)
	LastCmds(n int) ([]Cmd, error)

	SaveSession(name string, stmts []string) error
	Session(name string) ([]string, error)
	DelSession(name string) error
	SessionNames() ([]string, error)
}

// Cmd is an entry in the input history.
type Cmd struct {
	Text string
	Seq  int
}
