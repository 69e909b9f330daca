package main

import (
	"bytes"
	"fmt"

	"github.com/wippyai/clr-host/shm"
)

// CustomObject matches Interop.Core.Examples.CustomObject: a sequential
// struct of a 256-byte ANSI string and a double.
type CustomObject struct {
	Text   [256]byte
	Double float64
}

// customObjects is the first pool of the arena, so element i sits at
// i*264 where the managed side looks for it.
var customObjects = shm.MustType[CustomObject]("custom-object")

func NewCustomObject(text string, d float64) CustomObject {
	var o CustomObject
	// Keep room for the terminating NUL.
	copy(o.Text[:len(o.Text)-1], text)
	o.Double = d
	return o
}

// TextString returns Text up to the first NUL.
func (o *CustomObject) TextString() string {
	if i := bytes.IndexByte(o.Text[:], 0); i >= 0 {
		return string(o.Text[:i])
	}
	return string(o.Text[:])
}

func (o *CustomObject) String() string {
	return fmt.Sprintf("TextProp=%q; DoubleProp=%g", o.TextString(), o.Double)
}
