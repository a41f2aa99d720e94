// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/apex/log"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const maxSchemaDepth = 1

// DumpSchema prints the attr paths available on rows built from md, the
// message each result row is rendered from (--schema flag).
func DumpSchema(w io.Writer, md protoreflect.MessageDescriptor, extra ...string) {
	paths := append(SchemaPaths("", md, 0), extra...)
	sort.Strings(paths)

	fmt.Fprintln(w, "Schema for", md.Name(), "--")
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w,
		`Row level attributes that are directly available to the --attrs flag.
Only attributes covered by --field-mask are populated. For everything the
service returned, use --output=raw.`)
}

// SchemaPaths walks md and returns the JSON paths of its fields. Nested
// messages are expanded to maxSchemaDepth; well-known types such as
// google.protobuf.Duration are leaves.
func SchemaPaths(holder string, md protoreflect.MessageDescriptor, depth int) []string {
	var paths []string

	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)

		name := fd.JSONName()
		if holder != "" {
			name = holder + "." + name
		}
		paths = append(paths, name)

		if fd.Kind() != protoreflect.MessageKind || fd.IsList() || fd.IsMap() {
			continue
		}
		sub := fd.Message()
		if strings.HasPrefix(string(sub.FullName()), "google.protobuf.") {
			continue
		}
		if depth < maxSchemaDepth {
			paths = append(paths, SchemaPaths(name, sub, depth+1)...)
		} else {
			log.Debugf("not expanding %s beyond depth %d", name, depth)
		}
	}

	return paths
}
