// Package yamlfile reads and writes KnownData seed files.
//
// A seed file is a YAML document with a version and a list of records:
//
//	version: 1
//	records:
//	  - title: Workshop
//	    process: Fabrication
//	    activity_name: switch on the machine
//	    hazard_type: Mechanical
//	    hazard_des: Entanglement in moving parts
//	    injury: Crushed fingers
//	    control: Machine guarding
//	    severity: 4
//	    likelihood: 2
//
// IDs and timestamps are not part of the format; they are assigned when
// the records are stored.
package yamlfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/riskmatch/internal/core/domain"
)

// Version is the seed format version written by Write.
const Version = 1

type seedFile struct {
	Version int                `yaml:"version"`
	Records []domain.KnownData `yaml:"records"`
}

// Read decodes a seed document. A missing version is treated as the
// current one; unknown fields are rejected so typos surface early.
func Read(r io.Reader) ([]domain.KnownData, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.KnownData{}, nil
		}
		return nil, fmt.Errorf("%w: decoding seed: %v", domain.ErrInvalidInput, err)
	}
	if doc.Version != 0 && doc.Version != Version {
		return nil, fmt.Errorf("%w: unsupported seed version %d", domain.ErrInvalidInput, doc.Version)
	}
	if doc.Records == nil {
		doc.Records = []domain.KnownData{}
	}
	return doc.Records, nil
}

// Write encodes records as a seed document.
func Write(w io.Writer, records []domain.KnownData) error {
	if records == nil {
		records = []domain.KnownData{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seedFile{Version: Version, Records: records}); err != nil {
		return fmt.Errorf("encoding seed: %w", err)
	}
	return enc.Close()
}

// ReadFile reads a seed document from path.
func ReadFile(path string) ([]domain.KnownData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes a seed document to path with 0600 permissions.
func WriteFile(path string, records []domain.KnownData) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating seed file: %w", err)
	}
	if err := Write(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
