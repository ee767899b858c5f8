package errutil

import (
	"errors"
	"testing"

	"src.solrepl.sh/pkg/tt"
)

var (
	err1 = errors.New("error 1")
	err2 = errors.New("error 2")
	err3 = errors.New("error 3")
)

func TestMulti(t *testing.T) {
	tt.Test(t, tt.Fn("Multi", Multi), tt.Table{
		tt.Args().Rets(nil),
		tt.Args(nil, nil).Rets(nil),
		tt.Args(err1).Rets(err1),
		tt.Args(nil, err1).Rets(err1),
		tt.Args(err1, err2).Rets(tt.ErrorWithMessage("multiple errors: error 1; error 2")),
		tt.Args(Multi(err1, err2), err3).
			Rets(tt.ErrorWithMessage("multiple errors: error 1; error 2; error 3")),
	})
}

func TestMulti_Unwraps(t *testing.T) {
	err := Multi(err1, err2)
	if !errors.Is(err, err2) {
		t.Errorf("errors.Is(Multi(err1, err2), err2) = false")
	}
}
