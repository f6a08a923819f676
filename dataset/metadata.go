package dataset

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kylerbrown/bark/meta"
)

const (
	metaSuffix    = ".meta.yaml"
	entryMetaFile = "meta.yaml"
)

var (
	// ErrNoMetadata is returned when dataset has no sidecar meta file.
	ErrNoMetadata = errors.New("metadata file not found")
	// ErrExists is returned when entry or dataset already exists.
	ErrExists = errors.New("already exists")
	// ErrMetaPath is returned when meta file path is passed instead of data path.
	ErrMetaPath = errors.New("tried to open metadata file instead of data file")
)

// MetaPath returns path of the meta file for a dataset file or an entry
// directory.
func MetaPath(path string) string {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return filepath.Join(path, entryMetaFile)
	}
	return path + metaSuffix
}

// ReadMetadata reads meta file of dataset or entry.
func ReadMetadata(path string) (meta.Metadata, error) {
	if strings.HasSuffix(path, metaSuffix) {
		return meta.Metadata{}, fmt.Errorf("%s: %w", path, ErrMetaPath)
	}
	metaPath := MetaPath(path)
	b, err := ioutil.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return meta.Metadata{}, fmt.Errorf("%s: %w", metaPath, ErrNoMetadata)
		}
		return meta.Metadata{}, err
	}
	var md meta.Metadata
	if err := yaml.Unmarshal(b, &md); err != nil {
		return meta.Metadata{}, fmt.Errorf("decode %s: %w", metaPath, err)
	}
	if md.Attrs == nil {
		md.Attrs = meta.Attrs{}
	}
	return md, nil
}

// WriteMetadata writes meta file of dataset or entry. Derived attributes
// n_samples and n_channels are never persisted.
func WriteMetadata(path string, md meta.Metadata) error {
	attrs := md.Attrs.Copy()
	for _, key := range []string{
		meta.KeyNumSamples,
		meta.KeyNumChannels,
		meta.KeySamplingRate,
		meta.KeyDType,
		meta.KeyColumns,
	} {
		delete(attrs, key)
	}
	md.Attrs = attrs
	b, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return ioutil.WriteFile(MetaPath(path), b, 0644)
}
