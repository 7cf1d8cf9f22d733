// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package cli wires spf13/cobra command trees for the urltest-webdav and
// urltest-getlist binaries, following the teacher's internal/cli package
// layout: flag binding, env var defaults, and a signal-derived context.
package cli

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jtfrey/urltest/internal/tui"
	"github.com/jtfrey/urltest/pkg/urltest"
)

// signalContext derives a cancelable context from parent that cancels on
// SIGINT/SIGTERM, matching the teacher's signalContext helper.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// webdavOpts holds urltest-webdav's flags, bound directly by cobra.
type webdavOpts struct {
	longListing  bool
	shortListing bool
	noListing    bool
	ascii        bool

	verbose       bool
	verboseCurl   bool
	dryRun        bool
	showTimings   string
	maxGeneration int

	baseURL      string
	hostMappings []string
	username     string
	password     string
	insecure     bool
	depthFirst   bool
	noFollow3xx  bool
	noDelete     bool
	rangedOps    bool
	noOptions    bool

	noColor bool
	config  string
}

// NewWebdavCommand builds the urltest-webdav cobra command tree.
func NewWebdavCommand(version string) *cobra.Command {
	o := &webdavOpts{}

	cmd := &cobra.Command{
		Use:           "urltest-webdav [flags] <entity> {<entity> ...}",
		Short:         "Exercise a WebDAV collection by mirroring a local file tree onto it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applyWebdavConfigDefaults(cmd, o, o.config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebdav(cmd, o, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.config, "config", "", "path to a YAML config file (default ~/.config/urltest.yaml if present)")
	flags.BoolVarP(&o.longListing, "long-listing", "l", false, "list the discovered file hierarchy in an extended format")
	flags.BoolVarP(&o.shortListing, "short-listing", "s", false, "list the discovered file hierarchy in a compact format")
	flags.BoolVarP(&o.noListing, "no-listing", "n", false, "do not list the discovered file hierarchy")
	flags.BoolVarP(&o.ascii, "ascii", "a", false, "restrict listings and traces to ASCII characters")

	flags.BoolVarP(&o.verbose, "verbose", "v", false, "display additional information as the program progresses")
	flags.BoolVarP(&o.verboseCurl, "verbose-curl", "V", false, "trace every HTTP request/response to stderr")
	flags.BoolVarP(&o.dryRun, "dry-run", "d", false, "do not perform any HTTP requests, just show an activity trace")
	flags.StringVarP(&o.showTimings, "show-timings", "t", "", "show HTTP timing statistics at the end of the run: <format>{:<path>}, format = table|csv|tsv")
	flags.IntVarP(&o.maxGeneration, "generations", "g", 1, "maximum number of generations to iterate")

	flags.StringVarP(&o.baseURL, "base-url", "U", "", "base URL to mirror every <entity> onto; when omitted, entities are given as <path> <url> pairs")
	flags.StringSliceVarP(&o.hostMappings, "host-mapping", "m", nil, "static DNS mapping <hostname>:<port>:<ip address>")
	flags.StringVarP(&o.username, "username", "u", "", "HTTP basic auth username (env URLTEST_WEBDAV_USER)")
	flags.StringVarP(&o.password, "password", "p", "", "HTTP basic auth password (env URLTEST_WEBDAV_PASSWORD)")
	flags.BoolVarP(&o.insecure, "no-cert-verify", "k", false, "do not require SSL certificate verification")
	flags.BoolVarP(&o.depthFirst, "no-random-walk", "W", false, "process the file list as a simple depth-first traversal")
	flags.BoolVarP(&o.noFollow3xx, "no-follow-3xx", "F", false, "do not automatically follow HTTP 3xx redirects")
	flags.BoolVarP(&o.noDelete, "no-delete", "D", false, "do not delete anything on the remote side")
	flags.BoolVarP(&o.rangedOps, "ranged-ops", "r", false, "enable ranged GET operations")
	flags.BoolVarP(&o.noOptions, "no-options", "O", false, "disable OPTIONS operations")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colorized output")

	return cmd
}

func runWebdav(cmd *cobra.Command, o *webdavOpts, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	username := firstNonEmpty(o.username, os.Getenv("URLTEST_WEBDAV_USER"))
	password := firstNonEmpty(o.password, os.Getenv("URLTEST_WEBDAV_PASSWORD"))

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

	pairs, err := resolveEntityPairs(o.baseURL, args)
	if err != nil {
		return &cliError{code: urltest.ExitEINVAL, err: err}
	}

	format, sink, showAll, err := parseShowTimings(o.showTimings)
	if err != nil {
		return &cliError{code: urltest.ExitEINVAL, err: err}
	}
	if sink != nil {
		defer sink.Close()
	}

	listing := tui.ListingLong
	switch {
	case o.noListing:
		listing = tui.ListingNone
	case o.shortListing:
		listing = tui.ListingShort
	case o.longListing:
		listing = tui.ListingLong
	}

	aggregated := make(map[urltest.Method]*urltest.Stats, len(urltest.AllMethods))
	for _, m := range urltest.AllMethods {
		aggregated[m] = urltest.NewStats()
	}

	for _, pair := range pairs {
		list, err := urltest.BuildEntityList(pair.path)
		if err != nil {
			return &cliError{code: urltest.ExitEINVAL, err: err}
		}
		if o.noOptions {
			list.SetStateEnabled(urltest.StateOptions, false)
		}
		if o.noDelete {
			list.SetStateEnabled(urltest.StateDelete, false)
			list.SetStateEnabled(urltest.StateDeleteSub, false)
		}
		if o.rangedOps {
			list.SetStateEnabled(urltest.StateDownloadRange, true)
		}

		tui.PrintTree(cmd.OutOrStdout(), list, listing, o.ascii, !o.noColor)

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		var sel urltest.Selector
		if o.depthFirst {
			sel = &urltest.DepthFirstSelector{}
		} else {
			sel = urltest.NewRandomSelector(rng)
		}

		runCfg := urltest.RunConfig{
			MaxGeneration: o.maxGeneration,
			DryRun:        o.dryRun,
			Backoff:       urltest.NewBackoff(rng, 0, 0),
		}
		var bar *tui.BarRenderer
		if o.verbose {
			runCfg.Trace = func(ev urltest.TraceEvent) {
				tui.WriteTraceLine(cmd.OutOrStdout(), ev, !o.noColor)
			}
		} else {
			// One step per enabled, method-bearing state per entity per generation.
			steps := 0
			list.Root.Walk(func(e *urltest.Entity) {
				for s := urltest.StateUpload; s <= urltest.StateDelete; s++ {
					if _, ok := urltest.MethodFor(e.Kind, s); ok && e.EnableMask[s] {
						steps++
					}
				}
			})
			bar = tui.NewBarRenderer(steps * o.maxGeneration)
			runCfg.Trace = bar.Handler()
		}

		runErr := urltest.Run(ctx, list, sel, transport, rng, pair.url, runCfg)
		if bar != nil {
			bar.Finish()
		}
		if runErr != nil {
			return translateRunErr(runErr)
		}

		merged := urltest.MergeByMethod(list)
		for _, m := range urltest.AllMethods {
			aggregated[m].Merge(merged[m])
		}
	}

	if o.showTimings != "" {
		out := cmd.OutOrStdout()
		if sink != nil {
			out = sink
		}
		if err := urltest.WriteFullReport(out, aggregated, format, showAll); err != nil {
			return &cliError{code: urltest.ExitEINVAL, err: err}
		}
	}
	return nil
}

type entityPair struct {
	path string
	url  string
}

// resolveEntityPairs implements the original tool's two argument shapes:
// a shared --base-url with one local path per argument, or explicit
// <path> <url> pairs when --base-url is omitted.
func resolveEntityPairs(baseURL string, args []string) ([]entityPair, error) {
	if baseURL != "" {
		pairs := make([]entityPair, len(args))
		for i, a := range args {
			pairs[i] = entityPair{path: a, url: baseURL}
		}
		return pairs, nil
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("urltest: entities must be given as <path> <url> pairs when --base-url is not set")
	}
	pairs := make([]entityPair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, entityPair{path: args[i], url: args[i+1]})
	}
	return pairs, nil
}

func parseHostMappings(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("urltest: invalid host mapping %q (want host:port:ip)", spec)
		}
		out[parts[0]+":"+parts[1]] = parts[2]
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// cliError carries an exit code alongside an error so Main can pick the
// process exit status the way the original tool's errno-based exit() did.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) ExitCode() int { return e.code }

func translateRunErr(err error) error {
	if fe, ok := err.(*urltest.FatalError); ok {
		return &cliError{code: fe.Outcome.ExitCode, err: fe}
	}
	return &cliError{code: urltest.ExitEPERM, err: err}
}
