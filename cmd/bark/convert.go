package main

import (
	"flag"

	"github.com/kylerbrown/bark/config"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/stream"
	"github.com/kylerbrown/bark/wav"
)

type fromWavCommand struct {
	out string
}

func (cmd *fromWavCommand) Name() string {
	return "from-wav"
}

func (cmd *fromWavCommand) Help() string {
	return "Convert wav file to a sampled dataset"
}

func (cmd *fromWavCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
}

func (cmd *fromWavCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	s, err := wav.Read(in, stream.WithChunkSize(c.ChunkSize))
	if err != nil {
		return err
	}
	return write(s, cmd.out)
}

type toWavCommand struct {
	out      string
	bitDepth int
}

func (cmd *toWavCommand) Name() string {
	return "to-wav"
}

func (cmd *toWavCommand) Help() string {
	return "Convert sampled dataset to a wav file"
}

func (cmd *toWavCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output wav file (required)")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "bit depth of wav file: 16 or 32")
}

func (cmd *toWavCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	if cmd.out == "" {
		return errMissingOut
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	return wav.Write(s, cmd.out, signal.BitDepth(cmd.bitDepth))
}
