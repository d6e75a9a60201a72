package main

import (
	"context"
	"fmt"
	"growdoctor/internal/app"
	"growdoctor/internal/cache"
	"growdoctor/internal/config"
	"growdoctor/internal/i18n"
	"growdoctor/internal/model"
	"growdoctor/internal/service"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	cfgFile  string
	lang     string
	provider string
	output   string
	position string
	shot     string
	rawFile  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "growdoctor-diagnose <image>",
		Short: "Diagnose a plant photo from the command line",
		Long: `Runs a photo through the configured vision model and the safety rules and
prints the normalized diagnosis.

With --raw the model is skipped and a saved model answer is normalized instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.cfgFile, "config", "", "config file")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "de", "answer language")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "vision provider (openai, gemini, stub); default from config")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "human", "output format (human, json)")
	cmd.Flags().StringVar(&opts.position, "position", "", "photo position hint, e.g. top or underside")
	cmd.Flags().StringVar(&opts.shot, "shot", "", "shot type hint, e.g. close or whole_plant")
	cmd.Flags().StringVar(&opts.rawFile, "raw", "", "normalize a saved model answer instead of calling the model")
	return cmd
}

func run(ctx context.Context, opts options, args []string) error {
	if opts.output != "human" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	v := config.New()
	if err := config.ReadFile(v, opts.cfgFile); err != nil {
		return err
	}
	switch {
	case opts.rawFile != "":
		// no model call, so no key is needed
		v.Set("ai.provider", config.ProviderStub)
	case opts.provider != "":
		v.Set("ai.provider", opts.provider)
	}
	// keep stdout clean for the result
	if !v.IsSet("logging.level") || v.GetString("logging.level") == "info" {
		v.Set("logging.level", "warn")
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	catalog, err := i18n.Load()
	if err != nil {
		return err
	}
	pipeline, err := app.NewPipeline(cfg.Rules, catalog, logger)
	if err != nil {
		return err
	}
	lang := catalog.NormalizeLang(opts.lang)

	if opts.rawFile != "" {
		text, err := os.ReadFile(opts.rawFile)
		if err != nil {
			return fmt.Errorf("read raw answer: %w", err)
		}
		d, rep := pipeline.Process(string(text), lang)
		return render(os.Stdout, opts.output, &model.DiagnoseResponse{
			Status:             "ok",
			ImageHash:          cache.ImageHash(text),
			Language:           lang,
			Result:             d,
			Legal:              catalog.Legal(lang),
			DebugPhotoPosition: "unknown",
			DebugShotType:      "unknown",
		}, rep.SchemaViolations)
	}

	if len(args) != 1 {
		return fmt.Errorf("an image path is required unless --raw is given")
	}
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	vision, err := service.NewVisionClient(cfg.AI, &http.Client{}, logger)
	if err != nil {
		return err
	}
	mc := cache.NewMemoryCache(0, 0)
	defer mc.Close()
	svc := service.NewDiagnoseService(vision, pipeline, mc, catalog, nil, cfg.AI.Timeout, logger)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Asking %s...", service.ProviderName(vision))
	s.Writer = os.Stderr
	s.Start()

	resp, err := svc.Diagnose(service.WithRequestID(ctx, uuid.NewString()), model.DiagnoseRequest{
		Image:         image,
		ContentType:   contentTypeFor(args[0]),
		Language:      lang,
		AgeConfirmed:  true,
		PhotoPosition: opts.position,
		ShotType:      opts.shot,
	})
	s.Stop()
	if err != nil {
		return err
	}
	return render(os.Stdout, opts.output, resp, nil)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
