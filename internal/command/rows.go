// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// protoRow renders msg with the protobuf JSON mapping, so attr paths match
// the field names --schema lists, and adds the given top-level fields.
func protoRow(msg proto.Message, extra map[string]any) (map[string]any, error) {
	b, err := protojson.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}

	row := map[string]any{}
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	for k, v := range extra {
		row[k] = v
	}
	return row, nil
}

// marshalRows produces the JSON array SliceDiceSpit consumes.
func marshalRows(rows []map[string]any) ([]byte, error) {
	if rows == nil {
		rows = []map[string]any{}
	}
	return json.Marshal(rows)
}
