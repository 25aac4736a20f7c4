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
	"github.com/poiesic/ledgerfind/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalReceipt serializes a Receipt to bytes.
func MarshalReceipt(receipt *core.Receipt) []byte {
	buf := make([]byte, core.ReceiptMUS.Size(*receipt))
	core.ReceiptMUS.Marshal(*receipt, buf)
	return buf
}

// UnmarshalReceipt deserializes a Receipt from bytes.
func UnmarshalReceipt(data []byte) (*core.Receipt, error) {
	receipt, _, err := core.ReceiptMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// MarshalWarranty serializes a Warranty to bytes.
func MarshalWarranty(warranty *core.Warranty) []byte {
	buf := make([]byte, core.WarrantyMUS.Size(*warranty))
	core.WarrantyMUS.Marshal(*warranty, buf)
	return buf
}

// UnmarshalWarranty deserializes a Warranty from bytes.
func UnmarshalWarranty(data []byte) (*core.Warranty, error) {
	warranty, _, err := core.WarrantyMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &warranty, nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*record))
	core.EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
