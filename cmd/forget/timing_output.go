package main

import (
	"fmt"
	"io"

	"forget/internal/observ"
)

func printTimings(out io.Writer, timer *observ.Timer) {
	if timer == nil || out == nil {
		return
	}
	if _, err := fmt.Fprint(out, timer.Summary()); err != nil {
		panic(err)
	}
}
