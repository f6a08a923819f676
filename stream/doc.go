/*
Package stream provides lazy transformations of multi-channel sampled data
processed in bounded chunks.

A Stream wraps a Source of buffers together with sampling rate, chunk size,
attributes and column metadata. Operations never touch the data: they return
a new Stream describing the transformation. Data is pulled only by terminal
operations:

	s, err := stream.Read("mic.dat", stream.WithChunkSize(10000))
	if err != nil {
		return err
	}
	filtered, err := s.AnalogFilter(iir.Bessel, iir.Lowpass, 3, 500)
	if err != nil {
		return err
	}
	decimated, err := filtered.Decimate(4)
	if err != nil {
		return err
	}
	_, err = decimated.Write("mic_ds.dat")

A Stream can be iterated multiple times if all of its sources can be
reopened. Streams are not safe for concurrent use.
*/
package stream
