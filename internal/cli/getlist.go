// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jtfrey/urltest/pkg/urltest"
)

// getlistOpts holds urltest-getlist's flags.
type getlistOpts struct {
	concurrency int
	retries     int
	verbose     bool
	verboseCurl bool
	dryRun      bool
	showTimings string

	baseURL      string
	hostMappings []string
	username     string
	password     string
	insecure     bool
	noFollow3xx  bool
	config       string
}

// NewGetlistCommand builds the urltest-getlist cobra command tree.
func NewGetlistCommand(version string) *cobra.Command {
	o := &getlistOpts{}

	cmd := &cobra.Command{
		Use:           "urltest-getlist [flags] <url-list-file> {<url-list-file> ...}",
		Short:         "Fetch every URL in one or more list files and report aggregate timing statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applyGetlistConfigDefaults(cmd, o, o.config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetlist(cmd, o, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.config, "config", "", "path to a YAML config file (default ~/.config/urltest.yaml if present)")
	flags.IntVarP(&o.concurrency, "concurrency", "c", 1, "number of concurrent GET workers")
	flags.IntVarP(&o.retries, "retries", "r", 1, "retry attempts per URL on transport failure")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "display additional information as the program progresses")
	flags.BoolVarP(&o.verboseCurl, "verbose-curl", "V", false, "trace every HTTP request/response to stderr")
	flags.BoolVarP(&o.dryRun, "dry-run", "d", false, "do not perform any HTTP requests, just show an activity trace")
	flags.StringVarP(&o.showTimings, "show-timings", "t", "", "show HTTP timing statistics at the end of the run: <format>{:<path>}, format = table|csv|tsv")

	flags.StringVarP(&o.baseURL, "base-url", "U", "", "prepend this URL to every line read from the list files")
	flags.StringSliceVarP(&o.hostMappings, "host-mapping", "m", nil, "static DNS mapping <hostname>:<port>:<ip address>")
	flags.StringVarP(&o.username, "username", "u", "", "HTTP basic auth username (env URLTEST_GETLIST_USER)")
	flags.StringVarP(&o.password, "password", "p", "", "HTTP basic auth password (env URLTEST_GETLIST_PASSWORD)")
	flags.BoolVarP(&o.insecure, "no-cert-verify", "k", false, "do not require SSL certificate verification")
	flags.BoolVarP(&o.noFollow3xx, "no-follow-3xx", "F", false, "do not automatically follow HTTP 3xx redirects")

	return cmd
}

func runGetlist(cmd *cobra.Command, o *getlistOpts, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	username := firstNonEmpty(o.username, os.Getenv("URLTEST_GETLIST_USER"))
	password := firstNonEmpty(o.password, os.Getenv("URLTEST_GETLIST_PASSWORD"))

	hostMappings, err := parseHostMappings(o.hostMappings)
	if err != nil {
		return &cliError{code: urltest.ExitEINVAL, err: err}
	}

	transport := urltest.NewHTTPTransport(urltest.TransportConfig{
		Username:           username,
		Password:           password,
		InsecureSkipVerify: o.insecure,
		HostMappings:       hostMappings,
		Follow3xx:          !o.noFollow3xx,
		VerboseTrace:       o.verboseCurl,
	})

	format, sink, showAll, err := parseShowTimings(o.showTimings)
	if err != nil {
		return &cliError{code: urltest.ExitEINVAL, err: err}
	}
	if sink != nil {
		defer sink.Close()
	}

	var entries []urltest.GetListEntry
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return &cliError{code: urltest.ExitEINVAL, err: err}
		}
		fileEntries, err := urltest.ReadURLList(f)
		f.Close()
		if err != nil {
			return &cliError{code: urltest.ExitEINVAL, err: err}
		}
		for _, e := range fileEntries {
			entries = append(entries, urltest.GetListEntry{Line: e.Line, URL: urltest.JoinListURL(o.baseURL, e.URL)})
		}
	}

	if o.dryRun {
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "<- %s\n", e.URL)
		}
		return nil
	}

	agg := urltest.NewStats()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	runCfg := urltest.RunConfig{Retries: o.retries, Backoff: urltest.NewBackoff(rng, 0, 0)}
	var outMu sync.Mutex
	err = urltest.RunGetList(ctx, entries, transport, agg, runCfg, o.concurrency, func(r urltest.GetListResult) {
		if !o.verbose {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		if r.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "F,0,%q,%q\n", r.Entry.URL, r.Err.Error())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "T,%d,%q\n", r.Status, r.Entry.URL)
	})
	if err != nil {
		return &cliError{code: urltest.ExitEPERM, err: err}
	}

	if o.showTimings != "" {
		out := cmd.OutOrStdout()
		if sink != nil {
			out = sink
		}
		if err := urltest.WriteReport(out, urltest.MethodGET, agg, format, showAll); err != nil {
			return &cliError{code: urltest.ExitEINVAL, err: err}
		}
	}
	return nil
}
