package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AbheyTiwari/Maitri/internal/client"
)

// requireServer returns a client for a running daemon, or an actionable
// error when none is reachable.
func requireServer() (*client.Client, error) {
	c := client.New()
	if !c.Healthy() {
		return nil, fmt.Errorf("maitri server is not running (start it with 'maitri serve')")
	}
	return c, nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatEmotion, "emotion", "e", "", "Detected emotion for this turn (happy, sad, angry, fearful, surprised, disgusted, neutral)")
	factsCmd.Flags().StringVarP(&factsType, "type", "t", "", "Filter by fact type (name, job, location, relationship, preference, health, other)")
}

// --- chat command ---

var chatEmotion string

var chatCmd = &cobra.Command{
	Use:   "chat [user] [message...]",
	Short: "Send one chat turn to the companion",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{
		"user_id": args[0],
		"text":    strings.Join(args[1:], " "),
		"emotion": chatEmotion,
	})
	data, err := c.Post("/api/turns", body)
	if err != nil {
		return err
	}

	var resp struct {
		Reply      string  `json:"reply"`
		Stress     float64 `json:"stress"`
		Suggestion *struct {
			Kind   string `json:"kind"`
			Reason string `json:"reason"`
			Prompt string `json:"prompt"`
		} `json:"suggestion"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Println(resp.Reply)
	if resp.Suggestion != nil {
		fmt.Printf("\n[%s] %s\n", resp.Suggestion.Reason, resp.Suggestion.Prompt)
	}
	return nil
}

// --- facts command ---

var factsType string

var factsCmd = &cobra.Command{
	Use:   "facts [user]",
	Short: "Show what maitri knows about a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFacts,
}

func runFacts(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	path := "/api/users/" + args[0] + "/facts"
	if factsType != "" {
		path += "?type=" + url.QueryEscape(factsType)
	}
	data, err := c.Get(path)
	if err != nil {
		return err
	}

	var resp struct {
		Facts []struct {
			Type            string  `json:"type"`
			Value           string  `json:"value"`
			Confidence      float64 `json:"confidence"`
			LastConfirmedAt int64   `json:"last_confirmed_at"`
		} `json:"facts"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Facts) == 0 {
		fmt.Println("No facts stored yet.")
		return nil
	}
	for _, f := range resp.Facts {
		seen := time.UnixMilli(f.LastConfirmedAt).Format("2006-01-02")
		fmt.Printf("  %-12s %s (%.2f, last confirmed %s)\n", f.Type+":", f.Value, f.Confidence, seen)
	}
	return nil
}

// --- recall command ---

var recallCmd = &cobra.Command{
	Use:   "recall [user] [query...]",
	Short: "Search a user's memories",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRecall,
}

func runRecall(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	query := strings.Join(args[1:], " ")
	data, err := c.Get("/api/users/" + args[0] + "/recall?q=" + url.QueryEscape(query))
	if err != nil {
		return err
	}

	var resp struct {
		Results []struct {
			Text       string   `json:"text"`
			Themes     []string `json:"themes"`
			Score      float64  `json:"score"`
			Similarity float64  `json:"similarity"`
			CreatedAt  int64    `json:"created_at"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("No memories found.")
		return nil
	}
	for i, r := range resp.Results {
		when := time.UnixMilli(r.CreatedAt).Format("2006-01-02")
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Text)
		fmt.Printf("   %s", when)
		if len(r.Themes) > 0 {
			fmt.Printf(" | %s", strings.Join(r.Themes, ", "))
		}
		fmt.Println()
	}
	return nil
}

// --- engagement command ---

var engagementCmd = &cobra.Command{
	Use:   "engagement [user]",
	Short: "Show a user's engagement state",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngagement,
}

func runEngagement(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	data, err := c.Get("/api/users/" + args[0] + "/engagement")
	if err != nil {
		return err
	}

	var resp struct {
		StressScore      float64 `json:"stress_score"`
		SessionTurnCount int     `json:"session_turn_count"`
		LowContentStreak int     `json:"low_content_streak"`
		LastTurnAt       int64   `json:"last_turn_at"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("  stress:        %.1f / 100\n", resp.StressScore)
	fmt.Printf("  session turns: %d\n", resp.SessionTurnCount)
	fmt.Printf("  quiet streak:  %d\n", resp.LowContentStreak)
	if resp.LastTurnAt > 0 {
		fmt.Printf("  last turn:     %s\n", time.UnixMilli(resp.LastTurnAt).Format("2006-01-02 15:04"))
	} else {
		fmt.Printf("  last turn:     never\n")
	}
	return nil
}

// --- suggestions command ---

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions [user]",
	Short: "Show a user's proactive suggestion history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestions,
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	data, err := c.Get("/api/users/" + args[0] + "/suggestions")
	if err != nil {
		return err
	}

	var resp struct {
		Suggestions []struct {
			Kind        string `json:"kind"`
			Reason      string `json:"reason"`
			TriggeredAt int64  `json:"triggered_at"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Suggestions) == 0 {
		fmt.Println("No suggestions yet.")
		return nil
	}
	for _, s := range resp.Suggestions {
		when := time.UnixMilli(s.TriggeredAt).Format("2006-01-02 15:04")
		fmt.Printf("  [%s] %s: %s\n", when, s.Reason, s.Kind)
	}
	return nil
}

// --- import command ---

var importCmd = &cobra.Command{
	Use:   "import [user] [file.jsonl]",
	Short: "Import a chat log into memory",
	Long:  "Import a JSONL chat log, one {\"text\",\"emotion\",\"timestamp\"} object per line. Imported turns feed memory and facts but never trigger suggestions.",
	Args:  cobra.ExactArgs(2),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}

	out, err := c.Post("/api/users/"+args[0]+"/import", data)
	if err != nil {
		return err
	}

	var resp struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("imported %d entries (%d skipped)\n", resp.Imported, resp.Skipped)
	return nil
}

// --- erase command ---

var eraseCmd = &cobra.Command{
	Use:   "erase [user]",
	Short: "Erase everything stored about a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runErase,
}

func runErase(cmd *cobra.Command, args []string) error {
	c, err := requireServer()
	if err != nil {
		return err
	}

	data, err := c.Delete("/api/users/" + args[0])
	if err != nil {
		return err
	}

	var resp struct {
		TurnsErased int64 `json:"turns_erased"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("erased %s (%d turns removed)\n", args[0], resp.TurnsErased)
	return nil
}
