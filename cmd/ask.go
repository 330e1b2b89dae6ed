/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/foodchat-be/types"
)

// askCmd sends a conversation to a running server and prints the streamed reply.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a running server a cooking question",
	Long: `Posts a conversation to a running foodchat-be server and prints the reply
as it streams in. The conversation is either the question given as arguments
or a JSON array of {role, content} messages read from --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		filePath, _ := cmd.Flags().GetString("file")

		messages, err := askMessages(filePath, args)
		if err != nil {
			return err
		}
		if err := streamChat(cmd.Context(), serverURL, messages, cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("server", "s", "http://localhost:8080", "base URL of the foodchat-be server")
	askCmd.Flags().StringP("file", "f", "", "path to a JSON conversation to send")
}

func askMessages(filePath string, args []string) ([]types.Message, error) {
	if filePath == "" {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return nil, errors.New("a question or --file is required")
		}
		return []types.Message{{Role: types.RoleUser, Content: question}}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	var messages []types.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", filePath, err)
	}
	if err := types.ValidateMessages(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// streamChat copies the reply body to out as it arrives. A connection that is
// cut before the body ends is reported as an error.
func streamChat(ctx context.Context, serverURL string, messages []types.Message, out io.Writer) error {
	body, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp types.DataResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("reply interrupted: %w", err)
	}
	return nil
}
