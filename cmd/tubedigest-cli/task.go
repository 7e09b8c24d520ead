package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"TubeDigest/pkg/poller"

	"github.com/spf13/cobra"
)

var (
	submitPrompt string
	submitStart  string
	submitEnd    string
	submitWatch  bool
)

var submitCmd = &cobra.Command{
	Use:   "submit [youtube-url]",
	Short: "Submit a video or playlist for summarization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		taskID := submitTask(args[0])
		if submitWatch {
			watchTask(taskID)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Poll a task until it finishes, printing progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		watchTask(args[0])
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results [task-id]",
	Short: "Fetch and print the summaries of a finished task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printResults(args[0])
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitPrompt, "prompt", "", "custom summarization prompt")
	submitCmd.Flags().StringVar(&submitStart, "start", "", "transcript start time (HH:MM:SS, single videos only)")
	submitCmd.Flags().StringVar(&submitEnd, "end", "", "transcript end time (HH:MM:SS, single videos only)")
	submitCmd.Flags().BoolVar(&submitWatch, "watch", false, "poll the task until it finishes")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(resultsCmd)
}

func submitTask(link string) string {
	payload := map[string]string{"link": link}
	if submitPrompt != "" {
		payload["prompt"] = submitPrompt
	}
	if submitStart != "" {
		payload["start_time"] = submitStart
	}
	if submitEnd != "" {
		payload["end_time"] = submitEnd
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	resp, err := http.Post(serverURL+"/submit_task", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error submitting task: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Failed to submit task, status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Task submitted successfully!\nTask ID: %s\n", result["task_id"])
	fmt.Printf("To watch progress, run: tubedigest-cli watch %s\n", result["task_id"])
	return result["task_id"]
}

func watchTask(taskID string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := poller.NewHTTPClient(serverURL, 10*time.Second)
	session := poller.NewSession(client, poller.WithUpdateFunc(func(s poller.Status) {
		if s.TotalItems > 0 {
			fmt.Printf("[%s] %d/%d items (%d%%) %s\n", s.State, s.CompletedItems, s.TotalItems, s.ProgressPercent, s.CurrentDetails)
		} else {
			fmt.Printf("[%s] %s\n", s.State, s.CurrentDetails)
		}
	}))

	final, err := session.Wait(ctx, taskID)
	if err != nil {
		log.Fatalf("Task did not complete: %v", err)
	}

	fmt.Printf("Task %s finished with status %s\n", final.TaskID, final.State)
	printResults(taskID)
}

func printResults(taskID string) {
	endpoint := fmt.Sprintf("%s/results?task_id=%s", serverURL, url.QueryEscape(taskID))
	resp, err := http.Get(endpoint)
	if err != nil {
		log.Fatalf("Error fetching results: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Failed to fetch results, status code: %d, body: %s", resp.StatusCode, string(body))
	}

	// Pretty print the JSON output
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err != nil {
		log.Printf("Error formatting JSON: %v. Raw response: %s", err, body)
		return
	}
	fmt.Println(prettyJSON.String())
}
