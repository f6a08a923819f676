package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/kylerbrown/bark/config"
	"github.com/kylerbrown/bark/iir"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/stream"
)

var (
	errMissingOut   = errors.New("missing -o required flag")
	errMissingInput = errors.New("missing input dataset")
)

func read(c config.Config, path string) (*stream.Stream, error) {
	return stream.Read(path, stream.WithChunkSize(c.ChunkSize))
}

func singleInput(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected one input, got %d", errMissingInput, len(args))
	}
	return args[0], nil
}

func write(s *stream.Stream, out string, options ...stream.WriteOption) error {
	if out == "" {
		return errMissingOut
	}
	_, err := s.Write(out, options...)
	return err
}

type downsampleCommand struct {
	out    string
	factor int
	attrs  attrsFlag
}

func (cmd *downsampleCommand) Name() string {
	return "downsample"
}

func (cmd *downsampleCommand) Help() string {
	return "Keep every n-th sample of a sampled dataset"
}

func (cmd *downsampleCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.IntVar(&cmd.factor, "factor", 0, "downsample factor (required)")
	fs.Var(&cmd.attrs, "a", "extra metadata in the form of KEY=VALUE")
}

func (cmd *downsampleCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	decimated, err := s.Decimate(cmd.factor)
	if err != nil {
		return fmt.Errorf("-factor %d: %w", cmd.factor, err)
	}
	return write(decimated, cmd.out, stream.WithExtraAttrs(cmd.attrs.attrs()))
}

type selectCommand struct {
	out      string
	channels stringList
	colAttr  string
}

func (cmd *selectCommand) Name() string {
	return "select-channels"
}

func (cmd *selectCommand) Help() string {
	return "Select a subset of channels from a sampled dataset"
}

func (cmd *selectCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.Var(&cmd.channels, "c", "zero indexed channels to extract, column attribute values if -col-attr is set (required)")
	fs.StringVar(&cmd.colAttr, "col-attr", "", "name of column attribute to select channels with")
}

func (cmd *selectCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	if len(cmd.channels) == 0 {
		return errors.New("missing -c required flag")
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	var indices []int
	if cmd.colAttr != "" {
		indices = selectByAttr(s.Columns(), cmd.colAttr, cmd.channels)
		if len(indices) == 0 {
			return fmt.Errorf("no column has %s in %v", cmd.colAttr, cmd.channels)
		}
	} else {
		for _, ch := range cmd.channels {
			i, err := strconv.Atoi(ch)
			if err != nil {
				return fmt.Errorf("-c %s: %w", ch, err)
			}
			indices = append(indices, i)
		}
	}
	selected, err := s.Split(indices...)
	if err != nil {
		return err
	}
	return write(selected, cmd.out)
}

// selectByAttr returns indices of columns whose attribute matches one of
// the values.
func selectByAttr(columns meta.Columns, attr string, values []string) []int {
	var indices []int
	for _, i := range columns.Indices() {
		v, ok := columns[i][attr]
		if !ok {
			continue
		}
		for _, value := range values {
			if fmt.Sprint(v) == value {
				indices = append(indices, i)
				break
			}
		}
	}
	return indices
}

type diffCommand struct {
	out      string
	channels stringList
}

func (cmd *diffCommand) Name() string {
	return "difference-channels"
}

func (cmd *diffCommand) Help() string {
	return "Subtract one channel from another"
}

func (cmd *diffCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.Var(&cmd.channels, "c", "two channels to difference, second is subtracted from first (default 0,1)")
}

func (cmd *diffCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	channels := []int{0, 1}
	if len(cmd.channels) > 0 {
		if len(cmd.channels) != 2 {
			return fmt.Errorf("-c %v: expected two channels", cmd.channels.String())
		}
		for i, ch := range cmd.channels {
			if channels[i], err = strconv.Atoi(ch); err != nil {
				return fmt.Errorf("-c %s: %w", ch, err)
			}
		}
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	first, err := s.Split(channels[0])
	if err != nil {
		return err
	}
	second, err := s.Split(channels[1])
	if err != nil {
		return err
	}
	return write(first.SubtractStream(second), cmd.out)
}

type joinCommand struct {
	out string
}

func (cmd *joinCommand) Name() string {
	return "join-channels"
}

func (cmd *joinCommand) Help() string {
	return "Combine datasets with the same number of samples by adding channels"
}

func (cmd *joinCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
}

func (cmd *joinCommand) Run(c config.Config, args []string) error {
	if len(args) == 0 {
		return errMissingInput
	}
	streams := make([]*stream.Stream, 0, len(args))
	for _, in := range args {
		s, err := read(c, in)
		if err != nil {
			return err
		}
		streams = append(streams, s)
	}
	merged, err := stream.Merge(streams...)
	if err != nil {
		return err
	}
	return write(merged, cmd.out)
}

type concatCommand struct {
	out   string
	attrs attrsFlag
}

func (cmd *concatCommand) Name() string {
	return "concat"
}

func (cmd *concatCommand) Help() string {
	return "Concatenate datasets by appending samples"
}

func (cmd *concatCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.Var(&cmd.attrs, "a", "extra metadata in the form of KEY=VALUE")
}

func (cmd *concatCommand) Run(c config.Config, args []string) error {
	if len(args) == 0 {
		return errMissingInput
	}
	streams := make([]*stream.Stream, 0, len(args))
	for _, in := range args {
		s, err := read(c, in)
		if err != nil {
			return err
		}
		streams = append(streams, s)
	}
	return write(streams[0].Chain(streams[1:]...), cmd.out, stream.WithExtraAttrs(cmd.attrs.attrs()))
}

type filterCommand struct {
	out      string
	order    int
	highpass float64
	lowpass  float64
	filter   string
}

func (cmd *filterCommand) Name() string {
	return "filter"
}

func (cmd *filterCommand) Help() string {
	return "Apply zero-phase butter or bessel filter to a sampled dataset"
}

func (cmd *filterCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.IntVar(&cmd.order, "order", 0, "filter order (default from configuration)")
	fs.Float64Var(&cmd.highpass, "highpass", 0, "highpass frequency in Hz")
	fs.Float64Var(&cmd.lowpass, "lowpass", 0, "lowpass frequency in Hz")
	fs.StringVar(&cmd.filter, "filter", "", "filter type: butter or bessel (default from configuration)")
}

// band picks filter band from cutoffs. Highpass above lowpass gives
// bandstop.
func (cmd *filterCommand) band() (iir.Band, []float64, error) {
	switch {
	case cmd.highpass > 0 && cmd.lowpass > 0 && cmd.highpass < cmd.lowpass:
		return iir.Bandpass, []float64{cmd.highpass, cmd.lowpass}, nil
	case cmd.highpass > 0 && cmd.lowpass > 0:
		return iir.Bandstop, []float64{cmd.lowpass, cmd.highpass}, nil
	case cmd.highpass > 0:
		return iir.Highpass, []float64{cmd.highpass}, nil
	case cmd.lowpass > 0:
		return iir.Lowpass, []float64{cmd.lowpass}, nil
	}
	return 0, nil, errors.New("missing -highpass or -lowpass flag")
}

func (cmd *filterCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	if cmd.filter == "" {
		cmd.filter = c.Filter
	}
	if cmd.order == 0 {
		cmd.order = c.FilterOrder
	}
	proto, err := iir.ParsePrototype(cmd.filter)
	if err != nil {
		return fmt.Errorf("-filter %s: %w", cmd.filter, err)
	}
	band, freqs, err := cmd.band()
	if err != nil {
		return err
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	filtered, err := s.AnalogFilter(proto, band, cmd.order, freqs...)
	if err != nil {
		return err
	}
	return write(filtered, cmd.out)
}

type resampleCommand struct {
	out  string
	rate float64
}

func (cmd *resampleCommand) Name() string {
	return "resample"
}

func (cmd *resampleCommand) Help() string {
	return "Resample a sampled dataset to a new sampling rate"
}

func (cmd *resampleCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.out, "o", "", "name of output dataset (required)")
	fs.Float64Var(&cmd.rate, "rate", 0, "new sampling rate in Hz (required)")
}

func (cmd *resampleCommand) Run(c config.Config, args []string) error {
	in, err := singleInput(args)
	if err != nil {
		return err
	}
	s, err := read(c, in)
	if err != nil {
		return err
	}
	resampled, err := s.Resample(cmd.rate)
	if err != nil {
		return fmt.Errorf("-rate %v: %w", cmd.rate, err)
	}
	var options []stream.WriteOption
	if dtype, ok := s.Attrs()[meta.KeyDType].(string); ok {
		options = append(options, stream.WithDType(dtype))
	}
	return write(resampled, cmd.out, options...)
}
