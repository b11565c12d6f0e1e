package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sortify-app/sortify/backend/internal/config"
	"github.com/sortify-app/sortify/backend/internal/model/chat"
	"github.com/sortify-app/sortify/backend/internal/model/persona"
	"github.com/sortify-app/sortify/backend/internal/service/ai"
)

type transcriptEntry struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

// loadTranscript reads a YAML list of {role, content} turns.
func loadTranscript(path string) ([]chat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var entries []transcriptEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	messages := make([]chat.Message, 0, len(entries))
	for i, e := range entries {
		role := chat.Role(e.Role)
		if role != chat.RoleUser && role != chat.RoleAssistant {
			return nil, fmt.Errorf("entry %d: unknown role %q", i, e.Role)
		}
		messages = append(messages, chat.Message{Role: role, Content: e.Content})
	}
	return messages, nil
}

func newRootCmd() *cobra.Command {
	prompts := ai.NewPromptManager(persona.Default())

	root := &cobra.Command{
		Use:          "prompttester",
		Short:        "Inspect and exercise Sortify prompts",
		SilenceUsage: true,
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voice catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, v := range persona.Default().List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s %-8s %s\n", v.ID, v.Name, v.Description)
			}
			return nil
		},
	}

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print assembled prompts",
	}

	var voice, format, transcriptPath string
	var timeout time.Duration

	promptChatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Print the chat system prompt for a voice",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), prompts.BuildChatSystemPrompt(voice))
			return nil
		},
	}

	promptTakeawayCmd := &cobra.Command{
		Use:   "takeaway",
		Short: "Print the takeaway prompt for a transcript",
		RunE: func(cmd *cobra.Command, _ []string) error {
			messages, err := loadTranscript(transcriptPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompts.BuildTakeawayPrompt(voice, chat.TakeawayFormat(format), messages))
			return nil
		},
	}

	replyCmd := &cobra.Command{
		Use:   "reply",
		Short: "Generate the next assistant turn with the configured provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			messages, err := loadTranscript(transcriptPath)
			if err != nil {
				return err
			}
			svc, err := newCompleter(cmd.Context(), prompts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), svc.GenerateReply(ctx, voice, messages))
			return nil
		},
	}

	takeawayCmd := &cobra.Command{
		Use:   "takeaway",
		Short: "Generate a takeaway with the configured provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			messages, err := loadTranscript(transcriptPath)
			if err != nil {
				return err
			}
			svc, err := newCompleter(cmd.Context(), prompts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), svc.GenerateTakeaway(ctx, voice, chat.TakeawayFormat(format), messages))
			return nil
		},
	}

	for _, c := range []*cobra.Command{promptChatCmd, promptTakeawayCmd, replyCmd, takeawayCmd} {
		c.Flags().StringVar(&voice, "voice", persona.Gentle, "voice id ("+strings.Join(persona.IDs(), ", ")+")")
	}
	for _, c := range []*cobra.Command{promptTakeawayCmd, takeawayCmd} {
		c.Flags().StringVar(&format, "format", string(chat.FormatLetter), "takeaway format (letter, realizations, steps)")
	}
	for _, c := range []*cobra.Command{promptTakeawayCmd, replyCmd, takeawayCmd} {
		c.Flags().StringVar(&transcriptPath, "transcript", "", "YAML transcript file")
		_ = c.MarkFlagRequired("transcript")
	}
	for _, c := range []*cobra.Command{replyCmd, takeawayCmd} {
		c.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "completion timeout")
	}

	promptCmd.AddCommand(promptChatCmd, promptTakeawayCmd)
	root.AddCommand(voicesCmd, promptCmd, replyCmd, takeawayCmd)
	return root
}

// newCompleter builds the completion client from the environment. Without
// credentials it runs offline and prints the deterministic fallbacks.
func newCompleter(ctx context.Context, prompts *ai.PromptManager) (*ai.Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	return ai.NewService(provider, prompts, nil), nil
}
