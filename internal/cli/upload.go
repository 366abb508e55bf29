package cli

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivemirror/internal/platform"
	"github.com/sdejongh/drivemirror/pkg/models"
	"github.com/sdejongh/drivemirror/pkg/ratelimit"
	"github.com/sdejongh/drivemirror/pkg/remote"
	"github.com/sdejongh/drivemirror/pkg/storage"
)

// NewUploadCommand creates the upload command
func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <local-file> <remote-path>",
		Short: "Upload a single file",
		Long: `Upload one local file. When remote-path names an existing folder the file is
placed inside it under its local name. Otherwise the last segment of remote-path
is the new file name and missing parent folders are created first.

An existing remote file is never overwritten.`,
		Args: cobra.ExactArgs(2),
		RunE: runUpload,
	}

	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g., \"10MB\", \"1MiB\")")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	local, err := storage.NewOSLocal(filepath.Dir(source))
	if err != nil {
		return runFailed("upload", err)
	}
	info, err := local.Stat(ctx, source)
	if err != nil {
		return runFailed("upload", err)
	}
	if !info.Regular {
		return &ExitError{Code: models.StatusFailed.ExitCode(), Err: fmt.Errorf("%s: not a regular file (use sync for directories)", source)}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}
	bandwidth, err := cfg.BandwidthBytes()
	if err != nil {
		return err
	}

	store, err := connectStore(cmd)
	if err != nil {
		return err
	}

	parent, target, err := uploadTarget(ctx, store, args[1], filepath.Base(source))
	if err != nil {
		return err
	}

	file, err := local.Open(ctx, source)
	if err != nil {
		return runFailed("upload", err)
	}
	defer file.Close()

	content := ratelimit.NewReader(ctx, file, ratelimit.NewLimiter(bandwidth))
	obj, err := store.CreateFile(ctx, path.Base(target), parent.ID, content)
	if err != nil {
		return runFailed("upload", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", obj.ID, target, formatSize(info.Size))
	return nil
}

// uploadTarget returns the folder the file goes into and its full remote
// path. A path that names an existing folder receives the file under
// localName; any other path is the file path itself.
func uploadTarget(ctx context.Context, store remote.Store, remotePath, localName string) (*models.RemoteObject, string, error) {
	target := platform.NormalizeRemote(remotePath)

	obj, ok, err := remote.Resolve(ctx, store, target)
	if err != nil {
		return nil, "", runFailed("upload", err)
	}

	if ok && obj.IsFolder() {
		target = platform.ChildRemote(target, localName)
		exists, err := remote.Exists(ctx, store, target)
		if err != nil {
			return nil, "", runFailed("upload", err)
		}
		if exists {
			return nil, "", &ExitError{Code: 1, Err: fmt.Errorf("%s: already exists", target)}
		}
		return obj, target, nil
	}
	if ok {
		return nil, "", &ExitError{Code: 1, Err: fmt.Errorf("%s: already exists", target)}
	}

	parent, err := remote.EnsurePath(ctx, store, path.Dir(target))
	if err != nil {
		return nil, "", runFailed("upload", err)
	}
	return parent, target, nil
}
