package dataset

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kylerbrown/bark/meta"
)

// Entry attribute keys.
const (
	KeyTimestamp = "timestamp"
	KeyUUID      = "uuid"
)

// Entry is a directory of datasets sharing a start time.
type Entry struct {
	Path      string
	Name      string
	Timestamp time.Time
	UUID      string
	Attrs     meta.Attrs
	// Datasets maps dataset name to its path.
	Datasets map[string]string
}

// CreateEntry creates entry directory with a meta file. When parents is
// true, missing parent directories are created and metadata of existing
// entry is overwritten. Otherwise existing directory is an error.
func CreateEntry(path string, timestamp time.Time, parents bool, attrs meta.Attrs) (*Entry, error) {
	if _, err := os.Stat(path); err == nil {
		if !parents {
			return nil, fmt.Errorf("%s: %w", path, ErrExists)
		}
	} else if parents {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, err
		}
	} else if err := os.Mkdir(path, 0755); err != nil {
		return nil, err
	}
	attrs = attrs.Copy()
	attrs[KeyTimestamp] = timestamp.Format(time.RFC3339Nano)
	if _, ok := attrs[KeyUUID]; !ok {
		attrs[KeyUUID] = uuid.New().String()
	}
	if err := WriteMetadata(path, meta.Metadata{Attrs: attrs}); err != nil {
		return nil, err
	}
	return ReadEntry(path)
}

// ReadEntry reads entry meta file and lists its datasets.
func ReadEntry(path string) (*Entry, error) {
	md, err := ReadMetadata(path)
	if err != nil {
		return nil, err
	}
	e := Entry{
		Path:     path,
		Name:     filepath.Base(path),
		Attrs:    md.Attrs,
		Datasets: make(map[string]string),
	}
	if e.Timestamp, err = ParseTimestamp(md.Attrs[KeyTimestamp]); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if id, ok := md.Attrs[KeyUUID]; ok {
		e.UUID = fmt.Sprint(id)
	}
	files, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), metaSuffix) {
			continue
		}
		name := strings.TrimSuffix(f.Name(), metaSuffix)
		e.Datasets[name] = filepath.Join(path, name)
	}
	return &e, nil
}

// Sampled reads sampled dataset of the entry by name.
func (e *Entry) Sampled(name string) (*Sampled, error) {
	path, ok := e.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("entry %s has no dataset %s: %w", e.Name, name, os.ErrNotExist)
	}
	return ReadSampled(path)
}

// DatasetNames returns sorted names of entry datasets.
func (e *Entry) DatasetNames() []string {
	names := make([]string, 0, len(e.Datasets))
	for name := range e.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByTimestamp sorts entries by their start time.
type ByTimestamp []*Entry

func (s ByTimestamp) Len() int           { return len(s) }
func (s ByTimestamp) Less(i, j int) bool { return s[i].Timestamp.Before(s[j].Timestamp) }
func (s ByTimestamp) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Root is a directory of entries.
type Root struct {
	Path  string
	Name  string
	Attrs meta.Attrs
	// Entries maps entry name to its path.
	Entries map[string]string
}

// ReadRoot lists entries of the root directory. Root meta file is optional.
func ReadRoot(path string) (*Root, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	r := Root{
		Path:    path,
		Name:    filepath.Base(path),
		Attrs:   meta.Attrs{},
		Entries: make(map[string]string),
	}
	if md, err := ReadMetadata(path); err == nil {
		r.Attrs = md.Attrs
	}
	dirs, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		p := filepath.Join(path, d.Name())
		if _, err := os.Stat(filepath.Join(p, entryMetaFile)); err == nil {
			r.Entries[d.Name()] = p
		}
	}
	return &r, nil
}

// ReadEntries reads all entries of the root sorted by timestamp.
func (r *Root) ReadEntries() ([]*Entry, error) {
	entries := make([]*Entry, 0, len(r.Entries))
	for _, p := range r.Entries {
		e, err := ReadEntry(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sort.Sort(ByTimestamp(entries))
	return entries, nil
}

// ParseTimestamp converts stored timestamp into time. ISO 8601 strings,
// seconds since epoch and [seconds, microseconds] pairs are accepted.
func ParseTimestamp(v interface{}) (time.Time, error) {
	switch ts := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999-07:00"} {
			if t, err := time.Parse(layout, ts); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid timestamp %q", ts)
	case time.Time:
		return ts, nil
	case int:
		return time.Unix(int64(ts), 0), nil
	case float64:
		sec := int64(ts)
		return time.Unix(sec, int64((ts-float64(sec))*1e9)), nil
	case []interface{}:
		if len(ts) != 2 {
			return time.Time{}, fmt.Errorf("invalid timestamp %v", ts)
		}
		sec, err1 := toInt64(ts[0])
		usec, err2 := toInt64(ts[1])
		if err1 != nil || err2 != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %v", ts)
		}
		return time.Unix(sec, usec*1000), nil
	case nil:
		return time.Time{}, fmt.Errorf("timestamp missing")
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %v", v)
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
