package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/settings"
	"github.com/phambaophuc/tiny-compress-images/pkg/utils"
)

var compressCmd = &cobra.Command{
	Use:   "compress <attachment-id>",
	Short: "Compress an attachment in this process",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompress,
}

var statusCmd = &cobra.Command{
	Use:   "status <attachment-id>",
	Short: "Show the compression state of each rendition",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var registerCmd = &cobra.Command{
	Use:   "register <attachment-id> <file>",
	Short: "Register an uploaded file and the renditions found next to it",
	Long: `Register an uploaded file, relative to MEDIA_ROOT, as an attachment.

Renditions named <name>-<width>x<height>.<ext> in the same directory are
assigned to the registered sizes they fit.`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid attachment id %q", arg)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCompress(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.compressor.CompressAttachment(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	statuses, err := a.compressor.Status(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(statuses)
}

func runRegister(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	file := args[1]
	if _, err := a.media.Stat(file); err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	sizes := settings.New(a.store, a.opts, logger).Sizes(ctx)
	found, err := utils.FindRenditions(a.media, file, sizes)
	if err != nil {
		return err
	}

	attachment := &models.Attachment{ID: id, File: file, Sizes: found}
	if err := a.storage.SaveAttachment(ctx, attachment); err != nil {
		return err
	}
	logger.Info("Attachment registered", zap.Int64("attachment_id", id), zap.Int("renditions", len(found)))
	return printJSON(attachment)
}
