package main

import (
	"github.com/fatih/color"

	"github.com/manageplaces/Stompex/frame"
)

var (
	infof  = color.New(color.FgHiCyan).PrintfFunc()
	warnf  = color.New(color.FgHiYellow).PrintfFunc()
	errorf = color.New(color.FgHiRed).PrintfFunc()
	okf    = color.New(color.FgHiGreen).PrintfFunc()
)

// printFrame is the sub command's callback: it renders a received MESSAGE
// frame's destination and body.
func printFrame(f *frame.Frame) {
	dest := f.GetDefault(frame.HdrDestination, "")
	infof("[%s] %s\n", dest, string(f.Body))
}
