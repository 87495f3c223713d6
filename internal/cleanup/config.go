/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cleanup

import (
	"time"

	"github.com/qfile/cleanupd/framework/config"
)

// Config captures every global knob the processor needs, built once at
// startup from the parsed Caddyfile-style configuration and passed into
// NewProcessor. Handler code never reads package-level configuration state.
type Config struct {
	// AttrCountLimit bounds the number of envelope attributes a message
	// may carry.
	AttrCountLimit int

	// DelayWarnTime, if positive, is added to the message's accepted Time
	// to synthesize a WarnTime at the content boundary when none was set
	// explicitly by a Warn record.
	DelayWarnTime time.Duration

	// ExtraFlagsMask is the set of bits a RecFlags record is allowed to
	// set on State.Flags. Bits outside the mask are dropped with a
	// warning, not an error (see the design notes on this behavior).
	ExtraFlagsMask uint32

	// IPCTimeout is the deadline cmd/cleanupd sets on the context of a
	// clean run. The tlsattr marshalers and the flushclient Client do not
	// read it; the Client has its own Timeout.
	IPCTimeout time.Duration
}

// DefaultAttrCountLimit is used when a configuration block omits
// attr_count_limit.
const DefaultAttrCountLimit = 100

// DefaultIPCTimeout mirrors the ambient stack's var_ipc_timeout default.
const DefaultIPCTimeout = 3600 * time.Second

// NewDefaultConfig returns a Config with the package defaults, useful for
// tests and for daemon configuration blocks that don't override every knob.
func NewDefaultConfig() Config {
	return Config{
		AttrCountLimit: DefaultAttrCountLimit,
		DelayWarnTime:  0,
		ExtraFlagsMask: 0,
		IPCTimeout:     DefaultIPCTimeout,
	}
}

// ConfigFromMap decodes a Config from a parsed configuration block, using
// the same cfg.Int/cfg.Duration directive style the rest of the ambient
// stack uses for daemon configuration.
func ConfigFromMap(cfg *config.Map) (Config, error) {
	c := NewDefaultConfig()

	var (
		attrLimit      int
		delayWarn      time.Duration
		extraFlagsMask int
		ipcTimeout     time.Duration
	)

	cfg.Int("attr_count_limit", false, false, c.AttrCountLimit, &attrLimit)
	cfg.Duration("delay_warn_time", false, false, c.DelayWarnTime, &delayWarn)
	cfg.Int("extra_flags_mask", false, false, int(c.ExtraFlagsMask), &extraFlagsMask)
	cfg.Duration("ipc_timeout", false, false, c.IPCTimeout, &ipcTimeout)

	if _, err := cfg.Process(); err != nil {
		return Config{}, err
	}

	c.AttrCountLimit = attrLimit
	c.DelayWarnTime = delayWarn
	c.ExtraFlagsMask = uint32(extraFlagsMask)
	c.IPCTimeout = ipcTimeout
	return c, nil
}
