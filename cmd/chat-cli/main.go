package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	addr     = flag.String("addr", "http://localhost:8080", "backend base URL")
	provider = flag.String("provider", "noop", "LLM provider name")
	model    = flag.String("model", "noop-1", "model name")
	agentID  = flag.String("agent", "", "agent id (empty for direct chat mode)")
	title    = flag.String("title", "cli session", "chat title")
)

func main() {
	flag.Parse()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	chatID, err := createChat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
		os.Exit(1)
	}

	fmt.Println(boldGreen("AI Chat"))
	fmt.Printf("chat %s on %s/%s", boldCyan(chatID), *provider, *model)
	if *agentID != "" {
		fmt.Printf(" via agent %s", boldCyan(*agentID))
	}
	fmt.Println()
	fmt.Println("Type your message and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("> "))
		if !scanner.Scan() {
			return
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			return
		}

		if *agentID == "" {
			reply, err := sendMessage(chatID, prompt)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
				continue
			}
			fmt.Println(reply)
			continue
		}

		jobID, err := createJob(chatID, prompt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
			continue
		}
		fmt.Printf("%s\n", faint("job "+jobID))
		if err := followJob(jobID, faint); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
		}
	}
}

func createChat() (string, error) {
	body, _ := json.Marshal(map[string]string{
		"provider": *provider,
		"model":    *model,
		"agent_id": *agentID,
		"title":    *title,
	})
	resp, err := http.Post(*addr+"/api/v1/chats", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create chat: http %d", resp.StatusCode)
	}
	var chat struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", err
	}
	return chat.ID, nil
}

func sendMessage(chatID, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	resp, err := http.Post(fmt.Sprintf("%s/api/v1/chats/%s/messages", *addr, chatID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("send message: http %d", resp.StatusCode)
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func createJob(chatID, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	resp, err := http.Post(fmt.Sprintf("%s/api/v1/jobs/%s", *addr, chatID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("create job: http %d", resp.StatusCode)
	}
	var job struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", err
	}
	return job.JobID, nil
}

// followJob tails the job's SSE stream, printing log lines as they arrive
// and the final status/result at the end.
func followJob(jobID string, faint func(...interface{}) string) error {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/jobs/%s/events", *addr, jobID))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("job events: http %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var terminal struct {
			Status string         `json:"status"`
			Result map[string]any `json:"result"`
		}
		if err := json.Unmarshal([]byte(data), &terminal); err == nil && terminal.Status != "" {
			if text, ok := terminal.Result["text"].(string); ok && text != "" {
				fmt.Println(text)
			}
			if docx, ok := terminal.Result["output_docx_path"].(string); ok && docx != "" {
				fmt.Printf("%s\n", faint("document: "+*addr+"/api/v1/jobs/"+jobID+"/docx"))
			}
			fmt.Printf("%s\n", faint("status: "+terminal.Status))
			return nil
		}
		fmt.Printf("%s\n", faint(data))
	}
	return scanner.Err()
}
