// Terminal demo for the tradvisor agent.
//
// A REPL that sends each line to the agent and renders the plan, tool
// calls and final answer as they stream in.
//
// Usage:
//
//	cli                            Start the REPL
//	cli -m "Is NVDA a buy?"        Answer one message and exit
//	cli -list-models               List models offered by the endpoint
//	cli -version                   Print the build version
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/cli"
	"github.com/mfateev/tradvisor-agent/internal/config"
	"github.com/mfateev/tradvisor-agent/internal/instructions"
	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/version"
)

func main() {
	message := flag.String("m", "", "Answer this message once and exit")
	message2 := flag.String("message", "", "Answer this message once and exit (alias for -m)")
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env", ".env", "dotenv file (optional)")
	model := flag.String("model", "", "Override the model")
	noMarkdown := flag.Bool("no-markdown", false, "Disable markdown rendering")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	listModels := flag.Bool("list-models", false, "List available models and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("v", false, "Log agent activity to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}

	// Support both -m and --message
	msg := *message
	if msg == "" {
		msg = *message2
	}

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.API.Model.Model = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := llm.NewResponsesClient(llm.ResponsesConfig{
		APIKey:         cfg.API.APIKey,
		BaseURL:        cfg.API.BaseURL,
		Model:          cfg.API.Model,
		RequestTimeout: cfg.API.RequestTimeout,
		Logger:         logger,
	})

	if *listModels {
		if err := printModels(ctx, client); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	prompt, err := instructions.Load(cfg.Agent.InstructionsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := agent.New(client, agent.Config{
		Instructions:  prompt,
		MaxIterations: cfg.Agent.Limits.MaxIterations,
		Classifier:    agent.ClassifierConfigFromLimits(cfg.Agent.Limits),
		Logger:        logger,
	})

	app := cli.NewApp(a, cli.Config{
		Message:    msg,
		Model:      cfg.API.Model.Model,
		NoMarkdown: *noMarkdown,
		NoColor:    *noColor,
	}, os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printModels(ctx context.Context, client *llm.ResponsesClient) error {
	available, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range available {
		if m.OwnedBy != "" {
			fmt.Printf("%s\t(%s)\n", m.ID, m.OwnedBy)
		} else {
			fmt.Println(m.ID)
		}
	}
	return nil
}
