package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/xyproto/env/v2"
)

func main() {
	log.SetHandler(clihandler.Default)
	if env.Bool("PYTHIA_VERBOSE") {
		log.SetLevel(log.DebugLevel)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "analyse", "analyze":
		err = cmdAnalyse(os.Args[2:])
	case "sections":
		err = cmdSections(os.Args[2:])
	case "resources":
		err = cmdResources(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "methods":
		err = cmdMethods(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `pythia - recover Delphi class metadata from stripped PE executables

usage: pythia <command> [flags]

commands:
  analyse    scan and resolve vftables, typeinfo, method and field tables
  sections   list PE sections with characteristics
  resources  show DVCLAL license and PACKAGEINFO unit inventory
  graph      emit the recovered class hierarchy as Graphviz DOT
  methods    preview disassembly of recovered method entry points

set PYTHIA_VERBOSE=1 for debug logging.
`)
}
