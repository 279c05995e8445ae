package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/config"
)

var (
	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tiny-compress-images",
	Short: "Compress uploaded images and their renditions with TinyPNG",
	Long: "tiny-compress-images keeps track of which renditions of an uploaded image\n" +
		"have been sent to the TinyPNG compression service and replaces them with\n" +
		"the compressed result.",
	SilenceUsage:      true,
	PersistentPreRunE: initialize,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(registerCmd)
}

func initialize(cmd *cobra.Command, args []string) error {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	cfg, err = config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
