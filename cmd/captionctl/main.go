package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	appcaption "github.com/bryanwahyu/image-caption/internal/application/caption"
	"github.com/bryanwahyu/image-caption/internal/captionclient"
	"github.com/bryanwahyu/image-caption/internal/config"
	"github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/infra/ai/provider"
	"github.com/bryanwahyu/image-caption/internal/logger"
	"github.com/bryanwahyu/image-caption/internal/redact"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "captionctl",
		Usage: "generate alt text and descriptions for images",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "upload an image to a running caption server",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Value: "http://localhost:3000", EnvVars: []string{"CAPTION_SERVER"}},
					&cli.StringFlag{Name: "api-key", EnvVars: []string{"CAPTION_API_KEY"}},
					&cli.DurationFlag{Name: "timeout", Value: 60 * time.Second},
					jsonFlag(),
				},
				Action: runAnalyze,
			},
			{
				Name:      "local",
				Usage:     "call the AI provider directly using config.yaml and the environment",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: "config.yaml", EnvVars: []string{"CONFIG_PATH"}},
					jsonFlag(),
				},
				Action: runLocal,
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print the caption as JSON"}
}

func imageArg(c *cli.Context) (caption.Image, error) {
	if c.NArg() != 1 {
		return caption.Image{}, cli.Exit("expected exactly one image file", 2)
	}
	return captionclient.ReadImage(c.Args().First())
}

func runAnalyze(c *cli.Context) error {
	img, err := imageArg(c)
	if err != nil {
		return err
	}
	client := captionclient.New(c.String("server"), c.String("api-key"), c.Duration("timeout"))
	res, err := client.Analyze(c.Context, img)
	if err != nil {
		return err
	}
	return render(c.App.Writer, res, c.Bool("json"))
}

func runLocal(c *cli.Context) error {
	img, err := imageArg(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger.Setup(c.App.ErrWriter, cfg.Log.Level)

	ctx := c.Context
	vision, closeFn, err := provider.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	out, err := appcaption.NewService(vision, cfg.AI.Timeout).Analyze(ctx, img)
	if err != nil {
		return fmt.Errorf("%s", redact.String(err.Error(), provider.Secrets(cfg)...))
	}
	return render(c.App.Writer, out.Result, c.Bool("json"))
}

func render(w io.Writer, res caption.Result, asJSON bool) error {
	if asJSON {
		return captionclient.RenderJSON(w, res)
	}
	return captionclient.Render(w, res)
}
