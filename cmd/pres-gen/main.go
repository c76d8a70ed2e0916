// Command pres-gen runs the presentation generation service and manages its
// container image.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrPeryCox/pres-gen-new/pkg/config"
	"github.com/DrPeryCox/pres-gen-new/pkg/imagebuild"
	"github.com/DrPeryCox/pres-gen-new/pkg/jobs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
	"github.com/DrPeryCox/pres-gen-new/pkg/media"
	"github.com/DrPeryCox/pres-gen-new/pkg/runner"
	"github.com/DrPeryCox/pres-gen-new/pkg/server"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "pres-gen",
		Short: "Generate PowerPoint decks and composed presentation videos",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file with PRESGEN_* settings")

	rootCmd.AddCommand(newServeCmd(&envFile))
	rootCmd.AddCommand(newImageCmd(&envFile))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func loadConfig(envFile string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func newServeCmd(envFile *string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long:  "Starts the HTTP API together with the background workers that compose presentation videos.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			for _, bin := range []string{cfg.FFmpegBin, cfg.PdftoppmBin, cfg.PdfinfoBin} {
				if err := runner.CheckInstalled(bin); err != nil {
					return err
				}
			}

			store, err := jobs.NewStore(cfg.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			cmdRunner := &runner.DefaultCommandRunner{}
			composer := media.NewComposer(
				media.NewFFmpeg(cmdRunner, cfg.FFmpegBin),
				media.NewPDFTools(cmdRunner, cfg.PdftoppmBin, cfg.PdfinfoBin),
			)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool := jobs.NewPool(store, composer.Task(), cfg.Workers, 4*cfg.Workers)
			pool.Start(ctx)
			go runCleanup(ctx, store, cfg.JobTTL)

			err = server.New(cfg, store, pool).Serve(ctx)
			pool.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address, e.g. :8000 (overrides config)")
	return cmd
}

// runCleanup periodically drops expired finished jobs and their result files.
func runCleanup(ctx context.Context, store *jobs.Store, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Cleanup(ttl)
			if err != nil {
				logger.Warnf("job cleanup failed: %v", err)
			} else if removed > 0 {
				logger.Infof("cleaned up %d expired jobs", removed)
			}
		}
	}
}

func newImageCmd(envFile *string) *cobra.Command {
	var recipePath string
	var contextDir string
	var tag string
	var push bool

	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Render, plan and build the service container image",
	}
	imageCmd.PersistentFlags().StringVar(&recipePath, "recipe", "", "Recipe YAML file (defaults to the built-in recipe)")
	imageCmd.PersistentFlags().StringVar(&contextDir, "context", ".", "Build context directory")

	loadRecipe := func() (imagebuild.Recipe, error) {
		if recipePath == "" {
			return imagebuild.DefaultRecipe(), nil
		}
		return imagebuild.LoadRecipe(recipePath)
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Print the Dockerfile for the recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := loadRecipe()
			if err != nil {
				return err
			}
			content, err := imagebuild.Render(recipe)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the layer chain the recipe produces for the context",
		Long:  "Computes a content-addressed key per layer; comparing keys across runs shows which layers a change invalidates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := loadRecipe()
			if err != nil {
				return err
			}
			plan, err := imagebuild.NewPlan(recipe, contextDir)
			if err != nil {
				return err
			}
			for i, layer := range plan.Layers {
				instruction := layer.Instruction
				if idx := strings.IndexByte(instruction, '\n'); idx >= 0 {
					instruction = instruction[:idx] + " ..."
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %s  %s\n", i+1, layer.Key[:12], instruction)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "image key: %s\n", plan.Key())
			return nil
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the image with docker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			recipe, err := loadRecipe()
			if err != nil {
				return err
			}
			if err := runner.CheckInstalled(cfg.DockerBin); err != nil {
				return err
			}
			if tag == "" {
				tag = imagebuild.ImageRef(cfg.RegistryURL, cfg.ImageName, Version)
			}

			builder := imagebuild.NewBuilder(imagebuild.NewDockerCmdRunner(&runner.DefaultCommandRunner{}, cfg.DockerBin))
			result, err := builder.Build(cmd.Context(), recipe, contextDir, tag)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %s (image key %s)\n", result.Tag, result.Plan.Key()[:12])

			if push {
				if err := builder.Push(cmd.Context(), result.Tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pushed %s\n", result.Tag)
			}
			return nil
		},
	}
	buildCmd.Flags().StringVar(&tag, "tag", "", "Image tag (defaults to <registry>/<image>:<version>)")
	buildCmd.Flags().BoolVar(&push, "push", false, "Push the image after a successful build")

	imageCmd.AddCommand(renderCmd, planCmd, buildCmd)
	return imageCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pres-gen %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
