package cmd

import (
	"log/slog"
	"os"

	"github.com/darion/resultfetch/internal/aws_s3"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <run-dir>",
	Short: "Upload a run directory's report artifacts to s3.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mustSetup()
		if cfg.S3Settings.BucketName == "" {
			log.Error("s3 bucket_name is not configured.")
			os.Exit(1)
		}
		info, err := os.Stat(args[0])
		if err != nil || !info.IsDir() {
			log.Error("run directory not found.", slog.String("dir", args[0]))
			os.Exit(1)
		}

		uploaded, err := aws_s3.NewS3BucketClient(cfg.S3Settings, log).UploadDir(cmd.Context(), args[0], logUpload)
		if err != nil {
			log.Error("upload failed.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		log.Info("upload finished.", slog.Int("files", uploaded))
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

// logUpload renders per-file upload outcomes for the CLI commands.
func logUpload(path, url string, err error) {
	if err != nil {
		log.Error("failed to upload report artifact.",
			slog.String("file", path), slog.String("err", err.Error()))
		return
	}
	log.Info("uploaded.", slog.String("url", url))
}
