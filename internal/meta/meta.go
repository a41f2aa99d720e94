// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/apex/log"

	"github.com/staranto/routesgo/internal/channel"
	"github.com/staranto/routesgo/internal/config"
	"github.com/staranto/routesgo/internal/workers"
)

// Meta are the meta-options that are available on all or most commands. The
// channel cache and worker pool are shared by every command in the process.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	Cache   *channel.Cache
	Pool    *workers.Pool
	// Out receives command output. Nil means stdout.
	Out io.Writer
}

// Writer returns where command output goes.
func (m Meta) Writer() io.Writer {
	if m.Out == nil {
		return os.Stdout
	}
	return m.Out
}

// Close waits for pooled work and then closes every cached channel.
func (m Meta) Close() error {
	if m.Pool != nil {
		m.Pool.Close()
	}
	if m.Cache != nil {
		st := m.Cache.Stats()
		log.WithFields(log.Fields{
			"hits":      st.Hits,
			"misses":    st.Misses,
			"loads":     st.Loads,
			"errors":    st.LoadErrors,
			"evictions": st.Evictions,
			"entries":   st.Entries,
		}).Debug("channel cache")
		return m.Cache.Close()
	}
	return nil
}

// ErrNoCache is returned by commands run without a channel cache.
var ErrNoCache = errors.New("no channel cache configured")
