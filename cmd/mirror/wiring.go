package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertwitch/durasftp/mirror"
	"github.com/desertwitch/durasftp/plan"
	"github.com/desertwitch/durasftp/tree"
)

type mirrorer = mirror.Mirrorer

// run builds a Mirrorer from the package-level flags, invokes fn, and
// always closes the session afterwards.
func run(ctx context.Context, fn func(context.Context, *mirrorer) error) error {
	exclude, err := parseExclude()
	if err != nil {
		return err
	}

	if flags.localBase == "" || flags.host == "" {
		return &exitError{code: 2, err: fmt.Errorf("--local-base and --host are required")}
	}

	m, err := mirror.New(ctx, mirror.Config{
		LocalBase:             flags.localBase,
		Host:                  flags.host,
		Port:                  flags.port,
		Username:              flags.username,
		Password:              flags.password,
		PrivateKeyPath:        flags.privateKey,
		PrivateKeyPassphrase:  flags.privateKeyPass,
		AgentSocketPath:       flags.agentSocket,
		KnownHostsPath:        flags.knownHosts,
		InsecureIgnoreHostKey: flags.insecureIgnoreHostKey,
		Timeout:               flags.timeout,
		MaxAttempts:           flags.maxAttempts,
		Exclude:               exclude,
	})
	if err != nil {
		return &exitError{code: 3, err: err}
	}
	defer m.Close()

	if err := fn(ctx, m); err != nil {
		return &exitError{code: 4, err: err}
	}
	return nil
}

func parseExclude() (tree.ExcludeFilter, error) {
	patterns := flags.exclude
	if flags.excludeFrom != "" {
		data, err := os.ReadFile(flags.excludeFrom)
		if err != nil {
			return nil, fmt.Errorf("reading --exclude-from: %w", err)
		}
		if patterns != "" {
			patterns += "\n"
		}
		patterns += string(data)
	}
	return mirror.ParseExcludeFilter(patterns)
}

// printAction renders each executed action to stdout, per the
// mirror's action-rendering contract.
func printAction(a *plan.Action, execErr error) error {
	if execErr != nil {
		fmt.Printf("%v FAILED: %v\n", a, execErr)
		return nil
	}
	fmt.Println(a.String())
	return nil
}
