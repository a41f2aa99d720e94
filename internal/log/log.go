// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// ROUTESGO_LOG env variable.
func InitLogger() {
	log.SetHandler(NewHandler(os.Stderr))
	log.SetLevel(levelFromEnv())
}

// levelFromEnv falls back to ERROR when ROUTESGO_LOG is unset or not a level
// name. apex's SetLevelFromString panics on bad input.
func levelFromEnv() log.Level {
	s := strings.ToLower(strings.TrimSpace(os.Getenv("ROUTESGO_LOG")))
	if s == "" {
		return log.ErrorLevel
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.ErrorLevel
	}
	return lvl
}

// CustomHandler formats log messages, one line per entry. Stdout carries
// command output, so the default writer is stderr.
type CustomHandler struct {
	mu sync.Mutex
	w  io.Writer
}

func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	w := h.w
	if w == nil {
		w = os.Stderr
	}
	_, err := io.WriteString(w, b.String())
	return err
}
