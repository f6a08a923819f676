package stream

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kylerbrown/bark/iir"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
)

// perChannel applies fn to every channel of a buffer.
func perChannel(fn func([]float64) ([]float64, error)) MapFunc {
	return func(b signal.Float64) (signal.Float64, error) {
		result := make(signal.Float64, len(b))
		for i := range b {
			y, err := fn(b[i])
			if err != nil {
				return nil, err
			}
			result[i] = y
		}
		return result, nil
	}
}

// Filtfilt applies zero-phase filter with transfer function coefficients
// b and a to every channel.
func (s *Stream) Filtfilt(b, a []float64) (*Stream, error) {
	if _, err := iir.LfilterZi(b, a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	b, a = append([]float64(nil), b...), append([]float64(nil), a...)
	result := s.VectorMap(perChannel(func(x []float64) ([]float64, error) {
		return iir.Filtfilt(b, a, x)
	}))
	result.attrs[meta.KeyDType] = floatDType
	return result, nil
}

// Lfilter applies causal filter to every channel. Filter state is carried
// between buffers, so result doesn't depend on chunk size.
func (s *Stream) Lfilter(b, a []float64) (*Stream, error) {
	if _, err := iir.NewFilter(b, a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	b, a = append([]float64(nil), b...), append([]float64(nil), a...)
	result := s.transform(func(it Iterator) Iterator {
		var filters []*iir.Filter
		return mapIterator(it, func(buf signal.Float64) (signal.Float64, error) {
			if filters == nil {
				filters = make([]*iir.Filter, buf.NumChannels())
				for i := range filters {
					filters[i], _ = iir.NewFilter(b, a)
				}
			}
			result := make(signal.Float64, len(buf))
			for i := range buf {
				result[i] = filters[i].Process(buf[i])
			}
			return result, nil
		})
	})
	result.attrs[meta.KeyDType] = floatDType
	return result, nil
}

// Convolve convolves every channel with the window. Result is centered and
// has the same length as the input. Half of the window must fit into a
// third of chunk size.
func (s *Stream) Convolve(win []float64) (*Stream, error) {
	if len(win) == 0 {
		return nil, fmt.Errorf("%w: empty window", ErrConfiguration)
	}
	if len(win)/2 > s.chunkSize/3 {
		return nil, fmt.Errorf("%w: window of %d samples is too long for chunk size %d", ErrConfiguration, len(win), s.chunkSize)
	}
	win = append([]float64(nil), win...)
	result := s.VectorMap(perChannel(func(x []float64) ([]float64, error) {
		return iir.ConvolveSame(x, win), nil
	}))
	result.attrs[meta.KeyDType] = floatDType
	return result, nil
}

// MedianFilter applies median filter of odd size to every channel.
func (s *Stream) MedianFilter(size int) (*Stream, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("%w: median filter size %d must be odd and positive", ErrConfiguration, size)
	}
	if size/2 > s.chunkSize/3 {
		return nil, fmt.Errorf("%w: median filter size %d is too long for chunk size %d", ErrConfiguration, size, s.chunkSize)
	}
	return s.VectorMap(perChannel(func(x []float64) ([]float64, error) {
		return iir.Medfilt(x, size)
	})), nil
}

// AnalogFilter designs zero-phase filter from analog prototype and applies
// it to every channel. Frequencies are in Hz: one for lowpass and highpass,
// two ascending for bandpass and bandstop.
func (s *Stream) AnalogFilter(proto iir.Prototype, band iir.Band, order int, freqs ...float64) (*Stream, error) {
	nyquist := s.sampleRate / 2
	wn := make([]float64, len(freqs))
	for i, f := range freqs {
		if !(f > 0 && f < nyquist) {
			return nil, fmt.Errorf("%w: frequency %v Hz outside (0, %v)", ErrConfiguration, f, nyquist)
		}
		wn[i] = f / nyquist
	}
	b, a, err := iir.Design(proto, order, band, wn...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	s.logger().WithFields(logrus.Fields{
		"band":  band.String(),
		"order": order,
	}).Debugf("designed filter b=%v a=%v", b, a)
	return s.Filtfilt(b, a)
}
