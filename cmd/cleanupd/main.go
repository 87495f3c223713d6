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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/qfile/cleanupd/framework/config"
	"github.com/qfile/cleanupd/framework/exterrors"
	"github.com/qfile/cleanupd/framework/log"
	"github.com/qfile/cleanupd/internal/cleanup"
	"github.com/qfile/cleanupd/internal/queuefile"
	"github.com/qfile/cleanupd/internal/table"
	"github.com/qfile/cleanupd/recordio"
)

// exTempfail mirrors sysexits.h's EX_TEMPFAIL: the submitting MTA should
// requeue and retry rather than treat the message as undeliverable.
const exTempfail = 75

// rawBodyContent is the ContentHandler that takes over once the envelope
// segment closes: it copies whatever bytes follow verbatim into the queue
// file. Body parsing itself is out of scope; this is the seam a future
// content-aware handler would replace.
type rawBodyContent struct {
	body io.Reader
	dest io.Writer
}

func (c *rawBodyContent) Begin(_ context.Context, _ *cleanup.State) error {
	_, err := io.Copy(c.dest, c.body)
	return err
}

func main() {
	app := &cli.App{
		Name:  "cleanupd",
		Usage: "mail transfer agent queue-cleanup service",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Usage:   "Configuration file to use",
				EnvVars: []string{"CLEANUPD_CONFIG"},
				Value:   "/etc/cleanupd/cleanupd.conf",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "clean",
				Usage:     "ingest one envelope+body record stream from stdin into a queue file",
				ArgsUsage: "",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "queue-id",
						Usage: "Opaque identifier for the resulting queue file (generated if omitted)",
					},
				},
				Action: runClean,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cleanupd:", err)
		os.Exit(1)
	}
}

func runClean(ctx *cli.Context) error {
	cfgPath := ctx.String("config")
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open config: %v", err), 2)
	}
	defer cfgFile.Close()

	root, err := config.ReadTree(cfgFile, cfgPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to parse config: %v", err), 2)
	}
	cfg := config.NewMap(nil, root)

	var (
		queueDir     string
		metricsAddrs []string
		cleanupCfg   = cleanup.NewDefaultConfig()
		aliasTable   table.MultiTable
	)

	cfg.String("queue_dir", false, false, config.StateDirectory, &queueDir)
	cfg.StringList("metrics", false, false, nil, &metricsAddrs)
	cfg.Callback("cleanup", func(_ *config.Map, node config.Node) error {
		sub := config.NewMap(nil, node)
		c, err := cleanup.ConfigFromMap(sub)
		if err != nil {
			return err
		}
		cleanupCfg = c
		return nil
	})
	cfg.Callback("aliases", func(_ *config.Map, node config.Node) error {
		if len(node.Args) == 0 {
			return config.NodeErr(node, "expected a table type name")
		}
		sub := config.NewMap(nil, node)
		tbl, err := table.Build(node.Args[0], node.Args[1:], sub)
		if err != nil {
			return err
		}
		multi, ok := tbl.(table.MultiTable)
		if !ok {
			return config.NodeErr(node, "aliases table must support multi-value lookup")
		}
		aliasTable = multi
		return nil
	})
	if _, err := cfg.Process(); err != nil {
		return cli.Exit(fmt.Sprintf("bad config: %v", err), 2)
	}

	serveMetrics(metricsAddrs)

	if err := queuefile.EnsureDir(queueDir); err != nil {
		return fmt.Errorf("cleanupd: creating queue directory: %w", err)
	}

	queueID := ctx.String("queue-id")
	if queueID == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("cleanupd: generating queue id: %w", err)
		}
		queueID = id.String()
	}
	sink, err := queuefile.Create(queuefile.PathFor(queueDir, queueID))
	if err != nil {
		return fmt.Errorf("cleanupd: creating queue file: %w", err)
	}

	rewriter := &cleanup.TableRewriter{
		Aliases: aliasTable,
		Log:     log.Logger{Name: "rewriter"},
	}
	content := &rawBodyContent{dest: sink.Raw()}
	proc := cleanup.NewProcessor(cleanupCfg, rewriter, content)

	state := cleanup.NewState(queueID)
	runCtx, cancel := context.WithTimeout(context.Background(), cleanupCfg.IPCTimeout)
	defer cancel()

	if err := ingest(runCtx, proc, state, sink, content); err != nil {
		sink.Abort()
		wrapped := fmt.Errorf("cleanupd: envelope %s: %w", queueID, err)
		if exterrors.IsTemporaryOrUnspec(err) {
			// A sink write or table lookup failure may clear on its own;
			// tell the submitting MTA to requeue and retry rather than
			// bouncing the message.
			return cli.Exit(wrapped.Error(), exTempfail)
		}
		return wrapped
	}

	if err := sink.Commit(); err != nil {
		return fmt.Errorf("cleanupd: committing queue file: %w", err)
	}

	if state.Errs != 0 {
		fmt.Fprintf(os.Stderr, "cleanupd: envelope %s finished with diagnostics (err bits %#x)\n", queueID, state.Errs)
	}
	return nil
}

func ingest(ctx context.Context, proc *cleanup.Processor, state *cleanup.State, sink *queuefile.Sink, content *rawBodyContent) error {
	if err := proc.Begin(ctx, state, sink); err != nil {
		return err
	}

	reader := recordio.NewReader(os.Stdin)
	content.body = reader.Unread()

	for {
		rec, err := reader.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		boundary := rec.Type == cleanup.RecMesg
		if err := proc.Process(ctx, state, sink, rec); err != nil {
			return err
		}
		if boundary {
			return nil
		}
	}
}

func serveMetrics(addrs []string) {
	if len(addrs) == 0 {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	for _, addr := range addrs {
		addr := addr
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "cleanupd: metrics listener on %s stopped: %v\n", addr, err)
			}
		}()
	}
}
