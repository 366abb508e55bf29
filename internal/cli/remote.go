package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/remote"
)

// NewMkdirCommand creates the mkdir command
func NewMkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <remote-path>",
		Short: "Create a remote folder and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := connectStore(cmd)
			if err != nil {
				return err
			}

			folder, err := remote.EnsurePath(cmd.Context(), store, args[0])
			if err != nil {
				return runFailed("mkdir", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", folder.ID, platform.NormalizeRemote(args[0]))
			return nil
		},
	}
}

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <remote-path>",
		Short: "Print the object a remote path points at",
		Long: `Walk the remote path from the store root and print the ID, kind and size
of the object it names. Exits with status 1 when no object matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := connectStore(cmd)
			if err != nil {
				return err
			}

			path := platform.NormalizeRemote(args[0])
			obj, ok, err := remote.Resolve(cmd.Context(), store, path)
			if err != nil {
				return runFailed("resolve", err)
			}
			if !ok {
				return &ExitError{Code: 1, Err: fmt.Errorf("%s: not found", path)}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Path: %s\n", path)
			fmt.Fprintf(w, "ID:   %s\n", obj.ID)
			fmt.Fprintf(w, "Kind: %s\n", obj.Kind)
			if !obj.IsFolder() {
				fmt.Fprintf(w, "Size: %s\n", formatSize(obj.Size))
			}
			return nil
		},
	}
}

// connectStore opens a session with the configured remote
func connectStore(cmd *cobra.Command) (remote.Store, error) {
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := newConnector(cfg).Connect(cmd.Context())
	if err != nil {
		return nil, runFailed("connect", err)
	}
	return store, nil
}
