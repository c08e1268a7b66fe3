// main.go
/*
versafix — FIX protocol engine
Copyright (C) 2025 Steve Clarke <stephenlclarke@mac.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

In accordance with section 13 of the AGPL, if you modify this program,
your modified version must prominently offer all users interacting with it
remotely through a computer network an opportunity to receive the source
code of your version.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stephenlclarke/versafix/decoder"
	"github.com/stephenlclarke/versafix/dictionary"
	"github.com/stephenlclarke/versafix/fix"
	"github.com/stephenlclarke/versafix/validate"
)

// Version, Branch and Sha are injected at build time via -ldflags.
var (
	Version = "0.0.0"
	Branch  = "main"
	Sha     = "0000000"
)

// CLIOptions holds all parsed flag values.
type CLIOptions struct {
	XMLPath    string
	QuickFIX   bool
	Validate   bool
	Obfuscate  bool
	NoColour   bool
	ShowInfo   bool
	Files      []string
}

func parseFlagsArgs(args []string) (CLIOptions, error) {
	fs := flag.NewFlagSet("versafix", flag.ContinueOnError)

	xmlPath := fs.String("dict", "", "Path to the FIX dictionary XML file")
	quickfix := fs.Bool("quickfix", false, "Dictionary file uses the QuickFIX layout")
	validateFlag := fs.Bool("validate", false, "Validate decoded messages against the dictionary")
	obfuscate := fs.Bool("obfuscate", false, "Replace sensitive tag values with stable aliases")
	noColour := fs.Bool("no-colour", false, "Disable coloured output")
	info := fs.Bool("info", false, "Show a dictionary summary and exit")
	version := fs.Bool("version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return CLIOptions{}, err
	}

	if *version {
		fmt.Printf("versafix %s (%s@%s)\n", Version, Branch, Sha)
		os.Exit(0)
	}

	return CLIOptions{
		XMLPath:   *xmlPath,
		QuickFIX:  *quickfix,
		Validate:  *validateFlag,
		Obfuscate: *obfuscate,
		NoColour:  *noColour,
		ShowInfo:  *info,
		Files:     fs.Args(),
	}, nil
}

// sensitiveTags is the default obfuscation set: counterparty identity and
// account bearing fields.
var sensitiveTags = map[fix.Tag]string{
	1:   "Account",
	49:  "SenderCompID",
	56:  "TargetCompID",
	115: "OnBehalfOfCompID",
	128: "DeliverToCompID",
	448: "PartyID",
}

func main() {
	opts, err := parseFlagsArgs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.XMLPath == "" {
		fmt.Fprintln(os.Stderr, "versafix: -dict=FILE is required")
		os.Exit(2)
	}

	dict, err := loadDictionary(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "versafix: %v\n", err)
		os.Exit(1)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) || opts.NoColour {
		DisableColours()
	}

	if opts.ShowInfo {
		printDictionaryInfo(dict)
		return
	}

	parser := newLineParser(dict)
	obfuscator := fix.NewObfuscator(sensitiveTags, opts.Obfuscate)

	if len(opts.Files) == 0 {
		streamLog(os.Stdin, "stdin", parser, dict, opts, obfuscator)
		return
	}

	for _, path := range opts.Files {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "versafix: %v\n", err)
			os.Exit(1)
		}

		streamLog(f, path, parser, dict, opts, obfuscator)
		f.Close()
	}
}

func loadDictionary(opts CLIOptions) (*dictionary.Dictionary, error) {
	f, err := os.Open(opts.XMLPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if opts.QuickFIX {
		return dictionary.LoadQuickFIX(f)
	}

	return dictionary.Load(f)
}

// newLineParser wires a registry holding the loaded dictionary under the
// BeginString it declares, plus the standard version catalogue.
func newLineParser(d *dictionary.Dictionary) *decoder.Parser {
	reg := dictionary.NewRegistry()

	name := d.BeginString()
	if name == "" {
		name = "FIX.4.4"
	}
	reg.AddDictionary(name, d)

	for _, v := range dictionary.StandardVersions() {
		reg.AddVersion(v)
	}

	return decoder.NewParser(reg)
}

// streamLog decodes FIX messages found on each input line. Log lines may
// carry '|' in place of SOH.
func streamLog(r io.Reader, name string, parser *decoder.Parser, d *dictionary.Dictionary, opts CLIOptions, obfuscator *fix.Obfuscator) {
	fmt.Printf("%s%s%s\n", ColourFile, name, ColourReset)

	dictName := d.BeginString()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		start := strings.Index(line, "8=")
		if start == -1 {
			continue
		}

		wire := line[start:]
		if !strings.Contains(wire, "\x01") {
			wire = strings.ReplaceAll(wire, "|", "\x01")
		}

		wire = obfuscator.ObfuscateLine(wire, os.Stderr)

		res := parser.Parse([]byte(wire), decoder.Options{Session: dictName, ApplicationDefault: dictName})
		if res.Status != decoder.StatusComplete {
			fmt.Printf("%s  undecodable (%s): %s%s\n", ColourError, res.Status, prettify(wire), ColourReset)
			continue
		}

		printMessage(res.Message, d)

		if opts.Validate {
			for _, finding := range validate.Message(res.Message, d) {
				fmt.Printf("%s  ! %s%s\n", ColourError, finding, ColourReset)
			}
		}
	}
}
