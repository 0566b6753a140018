package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/version"
)

// BackupManifest tracks backed-up files and their checksums for integrity
// verification on restore.
type BackupManifest struct {
	Version   string                `json:"version"`
	Timestamp string                `json:"timestamp"`
	Files     map[string]BackupFile `json:"files"`
}

// BackupFile is one file in a backup with its metadata.
type BackupFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

func newBackupCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Take an emergency backup of the sentinel data directory",
		Long: `Copy the scheduler store, security logs, kill switch sentinel and
encrypted archives into a timestamped backup directory, with a manifest of
SHA-256 checksums for later verification.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "./backups", "output directory for backups")
	return cmd
}

func runBackup(cmd *cobra.Command, outputDir string) error {
	timestamp := time.Now().Format("20060102-150405")
	dest := filepath.Join(outputDir, "sentinel-"+timestamp)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting backup (timestamp: %s)\n", timestamp)
	fmt.Fprintf(cmd.OutOrStdout(), "Output directory: %s\n\n", dest)

	manifest := BackupManifest{
		Version:   version.Version,
		Timestamp: timestamp,
		Files:     map[string]BackupFile{},
	}

	err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}

		sum, size, err := copyWithChecksum(path, filepath.Join(dest, rel))
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		manifest.Files[rel] = BackupFile{Path: rel, Size: size, SHA256: sum}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d bytes)\n", rel, size)
		return nil
	})
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, "manifest.json"), raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "\nBackup complete: %d files\n", len(manifest.Files))
	return nil
}

func copyWithChecksum(src, dst string) (string, int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", 0, err
	}
	defer out.Close()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), in)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
