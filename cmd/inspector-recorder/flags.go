package main

import (
	"time"

	flag "github.com/spf13/pflag"
)

// flagValues holds the parsed CLI flags plus whether each was explicitly
// set, so resolveConfig can tell "left at zero value" apart from
// "explicitly passed" when layering flags over a config file.
type flagValues struct {
	out            string
	blockSizeBytes int
	tick           time.Duration
	configPath     string

	outSet       bool
	blockSizeSet bool
	tickSet      bool
}

func parseFlags(args []string) (*flagValues, error) {
	fs := flag.NewFlagSet("inspector-recorder", flag.ContinueOnError)

	out := fs.String("out", "", "directory to write recorded block files into (required)")
	blockSizeBytes := fs.Int("block-size-bytes", 100<<20, "maximum size of a block file before rotating")
	tick := fs.Duration("tick", 99*time.Millisecond, "polling interval for draining the event queue")
	configPath := fs.String("config", "", "optional HuJSON config file providing defaults beneath the flags above")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &flagValues{
		out:            *out,
		blockSizeBytes: *blockSizeBytes,
		tick:           *tick,
		configPath:     *configPath,
		outSet:         fs.Changed("out"),
		blockSizeSet:   fs.Changed("block-size-bytes"),
		tickSet:        fs.Changed("tick"),
	}, nil
}
