package main

import (
	"fmt"
	"io"

	"github.com/boddenberg/hub-avance-go/internal/taxid"
)

// runDoc prints kind, validity and formatted form of every argument. It
// fails when any of them is invalid.
func runDoc(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return &exitError{code: 2, msg: "usage: hubctl doc <value>..."}
	}

	invalid := 0
	for _, v := range args {
		kind := taxid.KindOf(v)
		label := string(kind)
		if kind == taxid.KindUnknown {
			label = "unknown"
		}
		valid := taxid.Valid(v)
		if !valid {
			invalid++
		}
		fmt.Fprintf(stdout, "%s\t%s\tvalid=%t\t%s\n", v, label, valid, taxid.Format(v))
	}
	if invalid > 0 {
		return &exitError{code: 1}
	}
	return nil
}
