package main

import (
	"fmt"
	"os"

	"fjacquet/ticket-tracker/cmd/categorize"
	"fjacquet/ticket-tracker/cmd/deletecmd"
	"fjacquet/ticket-tracker/cmd/importcmd"
	"fjacquet/ticket-tracker/cmd/manual"
	"fjacquet/ticket-tracker/cmd/report"
	"fjacquet/ticket-tracker/cmd/root"
)

func init() {
	root.Init()
	categorize.Init()
	report.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(manual.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(deletecmd.Cmd)
	root.Cmd.AddCommand(report.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
