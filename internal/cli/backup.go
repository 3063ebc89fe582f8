package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepsake/internal/backup"
)

var errNoRemote = errors.New("no backup remote configured")

func (a *app) exportCmd() *cobra.Command {
	var (
		out      string
		compress bool
		push     bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every collection to a backup file",
		Long: `Export writes a backup file holding every collection. Without --out the file
goes to backup.dir (default: <data dir>/backups) under a timestamped name.
--push copies the file to the configured remote.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("compress") {
				compress = a.config.GetBool(cfgKeyBackupCompress)
			}
			st, err := a.store(ctx)
			if err != nil {
				return err
			}
			snap, err := st.ExportAll(ctx)
			if err != nil {
				return a.fail(err)
			}

			path := out
			if path == "" {
				dir, err := a.backupDir()
				if err != nil {
					return a.fail(err)
				}
				path = filepath.Join(dir, backup.FileName(time.Now(), compress))
			}
			if err := backup.WriteFile(path, snap, backup.Options{Compress: compress}); err != nil {
				return a.fail(err)
			}
			a.logger.Info("backup written", "path", path, "records", snap.Len())

			fp, err := backup.Compute(snap)
			if err != nil {
				return a.fail(err)
			}
			result := exportResult{Path: path, Records: snap.Len(), Fingerprint: fp}

			if push {
				remote, err := a.remote(ctx)
				if err != nil {
					return a.fail(err)
				}
				if result.Remote, err = backup.Push(ctx, remote, path); err != nil {
					return a.fail(err)
				}
			}

			if a.flags.jsonMode {
				return a.fail(writeJSON(a.stdout, result))
			}
			renderExport(a.stdout, result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "backup file path")
	cmd.Flags().BoolVar(&compress, "compress", false, "compress with snappy (default from backup.compress)")
	cmd.Flags().BoolVar(&push, "push", false, "copy the backup to the configured remote")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var (
		verify bool
		pull   bool
	)
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Restore records from a backup file",
		Long: `Import writes every record of a backup file into the store, replacing records
with the same identifier. Records missing from the file are kept.

With --pull the file is fetched from the configured remote first; the
argument then names the remote object and defaults to the latest backup.
--verify checks afterwards that every record of the file is stored unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			path := name
			if pull {
				tmp, err := os.MkdirTemp("", "keepsake-pull-*")
				if err != nil {
					return a.fail(err)
				}
				defer os.RemoveAll(tmp)

				remote, err := a.remote(ctx)
				if err != nil {
					return a.fail(err)
				}
				if path, err = backup.Pull(ctx, remote, name, tmp); err != nil {
					return a.fail(err)
				}
			} else if path == "" {
				return &exitError{code: exitUserError, err: errors.New("import needs a backup file (or --pull)")}
			}

			snap, err := backup.ReadFile(path)
			if err != nil {
				return a.fail(err)
			}
			st, err := a.store(ctx)
			if err != nil {
				return err
			}
			if err := st.ImportAll(ctx, snap); err != nil {
				return a.fail(err)
			}
			if verify {
				if err := backup.Verify(ctx, st, snap); err != nil {
					return a.fail(err)
				}
			}

			result := importResult{Path: path, Records: snap.Len(), Verified: verify}
			if a.flags.jsonMode {
				return a.fail(writeJSON(a.stdout, result))
			}
			fmt.Fprintf(a.stdout, "imported %d records from %s\n", result.Records, filepath.Base(path))
			if verify {
				fmt.Fprintln(a.stdout, "verified")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the store against the file after import")
	cmd.Flags().BoolVar(&pull, "pull", false, "fetch the backup from the configured remote")
	return cmd
}

type exportResult struct {
	Path        string             `json:"path"`
	Records     int                `json:"records"`
	Fingerprint backup.Fingerprint `json:"fingerprint"`
	Remote      string             `json:"remote,omitempty"`
}

type importResult struct {
	Path     string `json:"path"`
	Records  int    `json:"records"`
	Verified bool   `json:"verified"`
}

// backupDir returns backup.dir, or the backups directory next to the data.
func (a *app) backupDir() (string, error) {
	if dir := a.config.GetString(cfgKeyBackupDir); dir != "" {
		return filepath.Abs(dir)
	}
	dataDir, err := a.dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "backups"), nil
}

// remote builds the backup remote named by backup.remote.
func (a *app) remote(ctx context.Context) (backup.Remote, error) {
	switch kind := a.config.GetString(cfgKeyBackupRemote); kind {
	case "local":
		dir := a.config.GetString(cfgKeyBackupLocalDir)
		if dir == "" {
			return nil, fmt.Errorf("%w: backup.local_dir is empty", errNoRemote)
		}
		return backup.NewLocalRemote(dir)
	case "s3":
		return backup.NewS3Remote(ctx, backup.S3Config{
			Bucket:       a.config.GetString(cfgKeyS3Bucket),
			Region:       a.config.GetString(cfgKeyS3Region),
			Endpoint:     a.config.GetString(cfgKeyS3Endpoint),
			UsePathStyle: a.config.GetBool(cfgKeyS3PathStyle),
			Prefix:       a.config.GetString(cfgKeyS3Prefix),
		})
	case "":
		return nil, errNoRemote
	default:
		return nil, fmt.Errorf("%w: unknown backup.remote %q", errNoRemote, kind)
	}
}
