package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/codebridge/bootstrap"
)

func main() {
	var output string
	var overwrite bool
	var sets stringList
	flag.StringVar(&output, "output", ".", "output directory")
	flag.StringVar(&output, "o", ".", "output directory")
	flag.BoolVar(&overwrite, "force", false, "overwrite existing files")
	flag.Var(&sets, "set", "config override path=value (repeatable)")
	flag.Parse()

	opts := bootstrap.Options{}
	for _, raw := range sets {
		override, err := bootstrap.ParseOverride(raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		opts.Overrides = append(opts.Overrides, override)
	}
	path, err := bootstrap.Write(filepath.Join(output, "config.example.yaml"), overwrite, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, path)
}

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
