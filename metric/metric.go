// Package metric publishes expvar counters of drains per sink type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kylerbrown/bark/signal"
)

const sinksLabel = "bark.sinks"

const (
	// BufferCounter measures number of written buffers.
	BufferCounter = "Buffers"
	// SampleCounter measures number of written samples.
	SampleCounter = "Samples"
	// DurationCounter measures duration of written signal.
	DurationCounter = "Duration"
	// ElapsedCounter measures wall time spent in drains.
	ElapsedCounter = "Elapsed"
	// DrainCounter counts completed drains.
	DrainCounter = "Drains"
	// FailureCounter counts aborted drains.
	FailureCounter = "Failures"
)

var (
	sinks = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BufferCounter,
		SampleCounter,
		DurationCounter,
		ElapsedCounter,
		DrainCounter,
		FailureCounter,
	}
)

// Get returns counter values for the type of provided sink.
func Get(sink interface{}) map[string]string {
	return getCounters(getType(sink))
}

// GetAll returns counters of all measured sink types.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	sinks.Lock()
	defer sinks.Unlock()
	for sinkType := range sinks.m {
		m[sinkType] = getCounters(sinkType)
	}
	return m
}

func getCounters(sinkType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(sinkType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Drain measures a single pass of a stream into a sink.
type Drain struct {
	m          metric
	sampleRate float64
	started    time.Time
}

// Start begins measuring a drain into the sink.
func Start(sink interface{}, sampleRate float64) *Drain {
	return &Drain{
		m:          sinks.get(getType(sink)),
		sampleRate: sampleRate,
		started:    time.Now(),
	}
}

// Buffer records a written buffer of size samples.
func (d *Drain) Buffer(size int) {
	d.m.buffers.Add(1)
	d.m.samples.Add(int64(size))
	d.m.duration.add(signal.DurationOf(d.sampleRate, int64(size)))
}

// Done finishes measurement. Drains that ended with error are counted
// as failures.
func (d *Drain) Done(err error) {
	d.m.elapsed.add(time.Since(d.started))
	if err != nil {
		d.m.failures.Add(1)
		return
	}
	d.m.drains.Add(1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(sinkType string) metric {
	m.Lock()
	defer m.Unlock()
	if existing, ok := m.m[sinkType]; ok {
		return existing
	}
	created := newMetric(sinkType)
	m.m[sinkType] = created
	return created
}

type metric struct {
	drains   *expvar.Int
	failures *expvar.Int
	buffers  *expvar.Int
	samples  *expvar.Int
	duration *duration
	elapsed  *duration
}

func newMetric(sinkType string) metric {
	m := metric{
		drains:   expvar.NewInt(key(sinkType, DrainCounter)),
		failures: expvar.NewInt(key(sinkType, FailureCounter)),
		buffers:  expvar.NewInt(key(sinkType, BufferCounter)),
		samples:  expvar.NewInt(key(sinkType, SampleCounter)),
		duration: &duration{},
		elapsed:  &duration{},
	}
	expvar.Publish(key(sinkType, DurationCounter), m.duration)
	expvar.Publish(key(sinkType, ElapsedCounter), m.elapsed)
	return m
}

func key(sinkType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", sinksLabel, sinkType, counter)
}

func getType(v interface{}) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration formats time.Duration values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
