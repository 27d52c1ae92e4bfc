// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"io"
	"os"

	"github.com/gorse-io/bpmf/base/encoding"
	"github.com/juju/errors"
)

// Record is the persisted form of one dataset: the ground-truth matrix, the
// observed ratings it was sampled from, and, once computed, the RMSE boost
// map and per-cell ensemble diagnostics.
type Record struct {
	Real       [][]float64
	Ratings    []Rating
	RatingVals []float64
	RMSEBoosts [][]float64
	ChildRMSEs map[Cell][]float64
}

// Mask derives the known-cell mask from the record's ratings.
func (r *Record) Mask() *Mask {
	return FromRatings(len(r.Real), len(r.Real[0]), r.Ratings)
}

// HasBoosts reports whether the boost map has been computed.
func (r *Record) HasBoosts() bool {
	return r.RMSEBoosts != nil
}

// Write the record to a byte stream.
func (r *Record) Write(w io.Writer) error {
	return errors.Trace(encoding.WriteGob(w, r))
}

// Read the record from a byte stream.
func (r *Record) Read(rd io.Reader) error {
	return errors.Trace(encoding.ReadGob(rd, r))
}

// LoadRecord reads a record from a file.
func LoadRecord(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	record := new(Record)
	if err := record.Read(f); err != nil {
		return nil, errors.Trace(err)
	}
	return record, nil
}

// SaveRecord writes a record to a file, creating it if absent.
func SaveRecord(path string, record *Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err := record.Write(f); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}

// UpdateRecord replaces the record at path without ever leaving a partially
// written primary file: the new record is written to a .tmp sibling, the
// original is renamed to a .bak sibling, and the .tmp file is renamed onto
// the original path. A crash between the two renames leaves both the backup
// and the fully written new file on disk.
func UpdateRecord(path string, record *Record) error {
	if err := SaveRecord(path+".tmp", record); err != nil {
		return errors.Trace(err)
	}
	if err := os.Rename(path, path+".bak"); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.Rename(path+".tmp", path))
}
