package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"reviewbot/internal/app"
	"reviewbot/internal/config"
	logx "reviewbot/pkg/logx"
)

var version = "dev"

type CLI struct {
	Config  string           `help:"Path to the config file (json, yaml or toml). A missing file means defaults." default:"./reviewbot.yaml" type:"path"`
	EnvFile []string         `help:"Dotenv files loaded before the environment is read." default:".env" name:"env-file" type:"path"`
	From    int64            `help:"Initial from_date cursor in unix seconds (default: now)."`
	Once    bool             `help:"Run a single poll cycle and exit."`
	Version kong.VersionFlag `help:"Show version information."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("reviewbot"),
		kong.Description("Polls the homework review-status API and reports status changes to Telegram."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	boot := logx.NewConsole("INFO").With(logx.String("comp", "main"))

	if err := config.LoadDotEnv(cli.EnvFile...); err != nil {
		boot.Critical("failed to load env file", logx.Err(err))
		os.Exit(1)
	}
	cfgm := config.NewManager(cli.Config)
	cfg, err := cfgm.Load()
	if err != nil {
		boot.Critical("failed to load config", logx.String("path", cli.Config), logx.Err(err))
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		boot.Critical("required configuration is missing, stopping", logx.Err(err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgm, app.Options{From: cli.From})
	if err != nil {
		boot.Critical("failed to start", logx.Err(err))
		os.Exit(1)
	}

	if cli.Once {
		out, err := a.RunOnce(ctx)
		if err != nil {
			boot.Error("shutdown error", logx.Err(err))
		}
		if !out.OK() {
			os.Exit(1)
		}
		return
	}

	if err := a.Run(ctx); err != nil {
		boot.Critical("stopped with error", logx.Err(err))
		cancel()
		os.Exit(1)
	}
}
