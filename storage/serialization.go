// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"math"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/resumatch/core"
)

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, sizeChunk(chunk))
	marshalChunk(chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := unmarshalChunk(data)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// MarshalManifest serializes a CollectionManifest to bytes.
func MarshalManifest(m *CollectionManifest) []byte {
	size := ord.String.Size(m.Name) +
		varint.Int.Size(m.VectorDim) +
		sizeStringSlice(m.KeywordFields) +
		sizeStringSlice(m.TextFields)
	buf := make([]byte, size)
	n := ord.String.Marshal(m.Name, buf)
	n += varint.Int.Marshal(m.VectorDim, buf[n:])
	n += marshalStringSlice(m.KeywordFields, buf[n:])
	marshalStringSlice(m.TextFields, buf[n:])
	return buf
}

// UnmarshalManifest deserializes a CollectionManifest from bytes.
func UnmarshalManifest(data []byte) (*CollectionManifest, error) {
	var m CollectionManifest
	name, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	m.Name = name
	dim, n1, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	m.VectorDim = dim
	n += n1
	m.KeywordFields, n1, err = unmarshalStringSlice(data[n:])
	if err != nil {
		return nil, err
	}
	n += n1
	m.TextFields, _, err = unmarshalStringSlice(data[n:])
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, sizeDocument(doc))
	marshalDocument(doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func sizeChunk(c *core.Chunk) int {
	return ord.String.Size(c.ID) +
		ord.String.Size(c.DocumentID) +
		ord.String.Size(string(c.Section)) +
		varint.Int.Size(c.ChunkIndex) +
		varint.Int.Size(c.TotalChunks) +
		ord.String.Size(c.Text) +
		sizeFloat32Slice(c.Vector) +
		sizeStringSlice(c.Keywords) +
		ord.String.Size(c.Category) +
		ord.String.Size(c.PrimaryRole) +
		ord.String.Size(c.ExperienceRole) +
		ord.String.Size(c.Company) +
		ord.String.Size(c.Environment) +
		varint.Int.Size(c.ExperienceIndex)
}

func marshalChunk(c *core.Chunk, buf []byte) int {
	n := ord.String.Marshal(c.ID, buf)
	n += ord.String.Marshal(c.DocumentID, buf[n:])
	n += ord.String.Marshal(string(c.Section), buf[n:])
	n += varint.Int.Marshal(c.ChunkIndex, buf[n:])
	n += varint.Int.Marshal(c.TotalChunks, buf[n:])
	n += ord.String.Marshal(c.Text, buf[n:])
	n += marshalFloat32Slice(c.Vector, buf[n:])
	n += marshalStringSlice(c.Keywords, buf[n:])
	n += ord.String.Marshal(c.Category, buf[n:])
	n += ord.String.Marshal(c.PrimaryRole, buf[n:])
	n += ord.String.Marshal(c.ExperienceRole, buf[n:])
	n += ord.String.Marshal(c.Company, buf[n:])
	n += ord.String.Marshal(c.Environment, buf[n:])
	n += varint.Int.Marshal(c.ExperienceIndex, buf[n:])
	return n
}

func unmarshalChunk(data []byte) (*core.Chunk, int, error) {
	var (
		c   core.Chunk
		n   int
		n1  int
		err error
	)
	if c.ID, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, n, err
	}
	if c.DocumentID, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	var section string
	if section, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	c.Section = core.Section(section)
	n += n1
	if c.ChunkIndex, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.TotalChunks, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Vector, n1, err = unmarshalFloat32Slice(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Keywords, n1, err = unmarshalStringSlice(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Category, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.PrimaryRole, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.ExperienceRole, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Company, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.Environment, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if c.ExperienceIndex, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	return &c, n, nil
}

func sizeDocument(d *core.Document) int {
	size := ord.String.Size(d.ID) +
		ord.String.Size(d.Category) +
		ord.String.Size(d.PrimaryRole) +
		sizeStringSlice(d.Summary) +
		sizeStringSlice(d.Skills) +
		varint.Int.Size(len(d.Experiences))
	for i := range d.Experiences {
		size += sizeExperience(&d.Experiences[i])
	}
	return size
}

func marshalDocument(d *core.Document, buf []byte) int {
	n := ord.String.Marshal(d.ID, buf)
	n += ord.String.Marshal(d.Category, buf[n:])
	n += ord.String.Marshal(d.PrimaryRole, buf[n:])
	n += marshalStringSlice(d.Summary, buf[n:])
	n += marshalStringSlice(d.Skills, buf[n:])
	n += varint.Int.Marshal(len(d.Experiences), buf[n:])
	for i := range d.Experiences {
		n += marshalExperience(&d.Experiences[i], buf[n:])
	}
	return n
}

func unmarshalDocument(data []byte) (*core.Document, int, error) {
	var (
		d   core.Document
		n   int
		n1  int
		err error
	)
	if d.ID, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, n, err
	}
	if d.Category, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if d.PrimaryRole, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if d.Summary, n1, err = unmarshalStringSlice(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	if d.Skills, n1, err = unmarshalStringSlice(data[n:]); err != nil {
		return nil, n, err
	}
	n += n1
	count, n1, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, n, err
	}
	n += n1
	if count < 0 {
		return nil, n, ErrSerializationFailed
	}
	if count > 0 {
		d.Experiences = make([]core.Experience, count)
		for i := 0; i < count; i++ {
			if n1, err = unmarshalExperience(&d.Experiences[i], data[n:]); err != nil {
				return nil, n, err
			}
			n += n1
		}
	}
	return &d, n, nil
}

func sizeExperience(e *core.Experience) int {
	return ord.String.Size(e.Role) +
		ord.String.Size(e.Company) +
		ord.String.Size(e.Environment) +
		sizeStringSlice(e.Responsibilities)
}

func marshalExperience(e *core.Experience, buf []byte) int {
	n := ord.String.Marshal(e.Role, buf)
	n += ord.String.Marshal(e.Company, buf[n:])
	n += ord.String.Marshal(e.Environment, buf[n:])
	n += marshalStringSlice(e.Responsibilities, buf[n:])
	return n
}

func unmarshalExperience(e *core.Experience, data []byte) (int, error) {
	var (
		n   int
		n1  int
		err error
	)
	if e.Role, n, err = ord.String.Unmarshal(data); err != nil {
		return n, err
	}
	if e.Company, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return n, err
	}
	n += n1
	if e.Environment, n1, err = ord.String.Unmarshal(data[n:]); err != nil {
		return n, err
	}
	n += n1
	if e.Responsibilities, n1, err = unmarshalStringSlice(data[n:]); err != nil {
		return n, err
	}
	n += n1
	return n, nil
}

func sizeStringSlice(values []string) int {
	size := varint.Int.Size(len(values))
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

func marshalStringSlice(values []string, buf []byte) int {
	n := varint.Int.Marshal(len(values), buf)
	for _, v := range values {
		n += ord.String.Marshal(v, buf[n:])
	}
	return n
}

func unmarshalStringSlice(data []byte) ([]string, int, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, n, err
	}
	if count < 0 {
		return nil, n, ErrSerializationFailed
	}
	if count == 0 {
		return nil, n, nil
	}
	values := make([]string, count)
	for i := 0; i < count; i++ {
		var n1 int
		if values[i], n1, err = ord.String.Unmarshal(data[n:]); err != nil {
			return nil, n, err
		}
		n += n1
	}
	return values, n, nil
}

// Float32 values travel as their IEEE 754 bit patterns in varint form.
func sizeFloat32Slice(values []float32) int {
	size := varint.Int.Size(len(values))
	for _, v := range values {
		size += varint.Uint32.Size(math.Float32bits(v))
	}
	return size
}

func marshalFloat32Slice(values []float32, buf []byte) int {
	n := varint.Int.Marshal(len(values), buf)
	for _, v := range values {
		n += varint.Uint32.Marshal(math.Float32bits(v), buf[n:])
	}
	return n
}

func unmarshalFloat32Slice(data []byte) ([]float32, int, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, n, err
	}
	if count < 0 {
		return nil, n, ErrSerializationFailed
	}
	if count == 0 {
		return nil, n, nil
	}
	values := make([]float32, count)
	for i := 0; i < count; i++ {
		var (
			bits uint32
			n1   int
		)
		if bits, n1, err = varint.Uint32.Unmarshal(data[n:]); err != nil {
			return nil, n, err
		}
		values[i] = math.Float32frombits(bits)
		n += n1
	}
	return values, n, nil
}
