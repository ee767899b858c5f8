//go:build !unix

package sys

func restrictUmask() func() { return func() {} }
