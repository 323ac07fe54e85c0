package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/kioku-ai/kioku/pkg/embedding"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/usecase/chat"
	"github.com/kioku-ai/kioku/pkg/usecase/memory"
	"github.com/urfave/cli/v3"
)

func chatCommand(cfg *config) *cli.Command {
	flags := append(globalFlags(cfg), providerFlags(cfg)...)
	flags = append(flags, llmFlags(cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive conversation",
		Flags: flags,
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

			provider, err := cfg.newProvider()
			if err != nil {
				return err
			}

			llm, err := cfg.newLLM(ctx)
			if err != nil {
				return err
			}

			mem := memory.New(repo, provider)
			session := chat.New(chat.NewInput{
				Memory:  mem,
				LLM:     llm,
				Persona: persona,
			})

			r := &repl{
				session:  session,
				mem:      mem,
				provider: provider,
			}
			return r.run(ctx)
		},
	}
}

type repl struct {
	session  *chat.Session
	mem      *memory.UseCase
	provider embedding.Provider
}

func (r *repl) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("Type a message, or @help for commands. Ctrl-D to quit.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if model.IsCommand(line) {
			if err := r.handleCommand(ctx, line); err != nil {
				fmt.Printf("Error: %s\n", err)
			}
			continue
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " thinking..."
		s.Start()
		reply, err := r.session.Send(ctx, line)
		s.Stop()

		if err != nil {
			fmt.Printf("Error: %s\n", err)
			continue
		}
		fmt.Println(reply.Text)
	}
}

// handleCommand runs an in-session command. Commands are never written to
// the conversation log.
func (r *repl) handleCommand(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "@help":
		fmt.Println("@recentchat [n]  show the last messages (default 2)")
		fmt.Println("@forget          delete the latest exchange")
		fmt.Println("@amnesia         erase the entire conversation log")
		fmt.Println("@summarize       summarize the recent conversation")
		fmt.Println("@updatevectors   recompute stored vectors")
		return nil

	case "@recentchat":
		n := 2
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err == nil && v > 0 {
				n = v
			}
		}
		messages, err := r.mem.Recent(ctx, n)
		if err != nil {
			return err
		}
		for _, msg := range messages {
			fmt.Printf("[%s] %s: %s\n", msg.Timestamp, msg.Sender, msg.Text)
		}
		return nil

	case "@forget":
		if err := r.mem.Forget(ctx); err != nil {
			return err
		}
		fmt.Println("Deleted the latest exchange")
		return nil

	case "@amnesia":
		if err := r.mem.Amnesia(ctx); err != nil {
			return err
		}
		fmt.Println("All messages erased")
		return nil

	case "@summarize":
		messages, err := r.mem.Recent(ctx, 10)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println("No messages to summarize")
			return nil
		}
		summary, err := r.session.Summarizer().SummarizeRecent(ctx, messages)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil

	case "@updatevectors":
		n, err := r.mem.Reembed(ctx, r.provider)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d messages\n", n)
		return nil

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		return nil
	}
}
