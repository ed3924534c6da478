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


package progress

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Records are stored as MUS: status varint, UpdatedAt as unix microseconds,
// then the error string.

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(rec *Record) []byte {
	size := varint.Uint64.Size(uint64(rec.Status)) +
		varint.Int64.Size(rec.UpdatedAt.UnixMicro()) +
		ord.String.Size(rec.Error)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(rec.Status), buf)
	n += varint.Int64.Marshal(rec.UpdatedAt.UnixMicro(), buf[n:])
	ord.String.Marshal(rec.Error, buf[n:])
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	status, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	micros, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}
	n += m

	cause, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, err
	}

	return &Record{
		Status:    Status(status),
		UpdatedAt: time.UnixMicro(micros).UTC(),
		Error:     cause,
	}, nil
}
