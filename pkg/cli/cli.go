package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kioku-ai/kioku/pkg/usecase/chat"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var cfg config

	cmd := &cli.Command{
		Name:  "kioku",
		Usage: "Conversational agent with persistent memory",
		Commands: []*cli.Command{
			chatCommand(&cfg),
			recentCommand(&cfg),
			forgetCommand(&cfg),
			amnesiaCommand(&cfg),
			summaryCommand(&cfg),
			searchCommand(&cfg),
			reembedCommand(&cfg),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// setup configures the default logger and hands back a context carrying it.
func (cfg *config) setup(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

func recentCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "recent",
		Usage:     "Show the most recent messages",
		ArgsUsage: "[count]",
		Flags:     globalFlags(cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			n := 10
			if c.Args().Len() > 0 {
				v, err := strconv.Atoi(c.Args().First())
				if err != nil || v < 1 {
					return goerr.New("count must be a positive integer", goerr.V("count", c.Args().First()))
				}
				n = v
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			messages, err := repo.LastN(ctx, n)
			if err != nil {
				return err
			}

			for _, msg := range messages {
				fmt.Printf("[%s] %s: %s\n", msg.Timestamp, msg.Sender, msg.Text)
			}
			return nil
		},
	}
}

func forgetCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "forget",
		Usage: "Delete the latest exchange from memory",
		Flags: globalFlags(cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.DeleteRecent(ctx, 2); err != nil {
				return err
			}
			fmt.Println("Deleted the latest exchange")
			return nil
		},
	}
}

func amnesiaCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "amnesia",
		Usage: "Erase the entire conversation log",
		Flags: append(globalFlags(cfg),
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Skip confirmation",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			if !c.Bool("force") {
				fmt.Print("Erase all stored messages? [y/N]: ")
				var answer string
				fmt.Scanln(&answer)
				if answer != "y" && answer != "Y" {
					fmt.Println("Canceled")
					return nil
				}
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.DeleteAll(ctx); err != nil {
				return err
			}
			fmt.Println("All messages erased")
			return nil
		},
	}
}

func summaryCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Summarize the recent conversation",
		Flags: append(globalFlags(cfg), llmFlags(cfg)...),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			persona, err := cfg.loadPersona()
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			messages, err := repo.LastN(ctx, 10)
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Println("No messages to summarize")
				return nil
			}

			llm, err := cfg.newLLM(ctx)
			if err != nil {
				return err
			}

			summary, err := chat.NewSummarizer(llm, persona).SummarizeRecent(ctx, messages)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
}

func searchCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find stored exchanges similar to a query",
		ArgsUsage: "<query>",
		Flags:     append(globalFlags(cfg), providerFlags(cfg)...),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			query := c.Args().First()
			if query == "" {
				return goerr.New("query is required")
			}

			mem, repo, err := cfg.newMemory()
			if err != nil {
				return err
			}
			defer repo.Close()

			snippets, err := mem.Search(ctx, query)
			if err != nil {
				return err
			}
			if len(snippets) == 0 {
				fmt.Println("No similar exchanges found")
				return nil
			}

			for _, s := range snippets {
				fmt.Printf("%s: %s\n", s.Role, s.Text)
			}
			return nil
		},
	}
}

func reembedCommand(cfg *config) *cli.Command {
	return &cli.Command{
		Name:  "reembed",
		Usage: "Recompute stored vectors with the configured provider",
		Flags: append(globalFlags(cfg), providerFlags(cfg)...),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			mem, repo, err := cfg.newMemory()
			if err != nil {
				return err
			}
			defer repo.Close()

			provider, err := cfg.newProvider()
			if err != nil {
				return err
			}

			n, err := mem.Reembed(ctx, provider)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d messages\n", n)
			return nil
		},
	}
}
