package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/example/go-jtalk/internal/tts"
	"github.com/example/go-jtalk/internal/voicepack"
	"github.com/spf13/cobra"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List voices declared in the voice manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vm, err := tts.NewVoiceManager(cfg.Paths.VoicesManifest)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tPATH\tLICENSE\tDESCRIPTION")
			for _, v := range vm.ListVoices() {
				path, err := vm.ResolvePath(v.ID)
				if err != nil {
					path = v.Path + " (missing)"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, path, v.License, v.Description)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(newVoicesDownloadCmd())
	return cmd
}

func newVoicesDownloadCmd() *cobra.Command {
	var packPath string
	var outDir string
	var token string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the voices listed in a voice pack and register them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = os.Getenv("JTALK_DOWNLOAD_TOKEN")
			}
			if outDir == "" {
				cfg, err := requireConfig()
				if err != nil {
					return err
				}
				outDir = filepath.Dir(cfg.Paths.VoicesManifest)
			}

			pack, err := voicepack.LoadPack(packPath)
			if err != nil {
				return err
			}

			err = voicepack.Download(cmd.Context(), voicepack.DownloadOptions{
				Pack:   pack,
				OutDir: outDir,
				Token:  token,
				Stdout: cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("voice download failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&packPath, "pack", "voices/pack.json", "Voice pack file listing voices to download")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for voices and manifest (default: the voices manifest directory)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for the download host (falls back to JTALK_DOWNLOAD_TOKEN)")

	return cmd
}
