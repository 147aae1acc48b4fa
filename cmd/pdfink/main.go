// seehuhn.de/go/pdfink - draw ink strokes on PDF pages and images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Pdfink flattens ink strokes into PDF files and images.
//
// Usage:
//
//	pdfink process [-width W] [-gray] [-out DIR] FILE...
//	pdfink annotate [-config FILE] [-strokes FILE] [-out DIR] [-as pdf|image] FILE...
//	pdfink render [-width W] [-page N] [-gray] [-o OUT] FILE
//	pdfink info FILE...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	"seehuhn.de/go/pdfink"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []*command{
	{"process", "scale documents to a fixed width and write PNG files", runProcess},
	{"annotate", "draw strokes from a file onto a document and save it", runAnnotate},
	{"render", "render one page to a PNG file", runRender},
	{"info", "show the pages of documents", runInfo},
}

var (
	verbose  bool
	password string
)

func main() {
	flag.BoolVar(&verbose, "v", false, "log progress to stderr")
	flag.StringVar(&password, "password", "", "password for encrypted PDF files")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	pdfink.SetLogger(slog.New(handler))

	var cmd *command
	for _, c := range commands {
		if c.name == flag.Arg(0) {
			cmd = c
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.run(ctx, flag.Args()[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: %s [-v] [-password PW] command [arguments]\n\n", os.Args[0])
	fmt.Fprintln(out, "commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-9s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(out)
	flag.PrintDefaults()
}

// readPassword supplies PDF passwords: first the one given on the command
// line, then whatever the user types, as long as stdin is a terminal.
func readPassword(_ []byte, try int) string {
	if password != "" {
		if try == 0 {
			return password
		}
		try--
	}
	fd := int(os.Stdin.Fd())
	if try >= 3 || !term.IsTerminal(fd) {
		return ""
	}
	fmt.Fprint(os.Stderr, "password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(pw)
}

// printURLs writes one output file per line.
func printURLs(urls []string) {
	for _, u := range urls {
		fmt.Println(u)
	}
}
