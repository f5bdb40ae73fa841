// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/nmea_fix/internal/config"
)

// RunReplay runs a recorded NMEA file through the engine offline and
// writes every lock change and the final fix to out.
func RunReplay(path string, cfg *config.Config, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()
	return replay(f, cfg, out)
}

func replay(r io.Reader, cfg *config.Config, out io.Writer) error {
	parser, svc := newEngine(cfg)

	updates := 0
	svc.OnUpdate.Subscribe(func() { updates++ })
	svc.OnLockStateChanged.Subscribe(func(locked bool) {
		state := "lost"
		if locked {
			state = "acquired"
		}
		fmt.Fprintf(out, "lock %s at %s\n", state, svc.Fix().Timestamp)
	})

	stats, err := feedLines(context.Background(), r, parser, 0)
	if err != nil {
		return fmt.Errorf("replay read error: %w", err)
	}

	fmt.Fprintf(out, "%s lines, %s rejected, %s updates\n",
		humanize.Comma(int64(stats.Lines)), humanize.Comma(int64(stats.Rejected)), humanize.Comma(int64(updates)))
	fmt.Fprint(out, svc.Fix().String())
	return nil
}
