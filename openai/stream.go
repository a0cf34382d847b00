package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// StreamEventType identifies one kind of incremental run event.
type StreamEventType string

const (
	StreamTextDelta       StreamEventType = "text_delta"
	StreamToolCallCreated StreamEventType = "tool_call_created"
	StreamToolCallDelta   StreamEventType = "tool_call_delta"
)

// StreamEvent is one ordered event of a streamed assistant response.
type StreamEvent struct {
	Type StreamEventType
	// Text carries the token text for text deltas and the incremental
	// payload (e.g. code interpreter input or logs) for tool-call deltas.
	Text string
	// Tool is the tool type for tool-call events.
	Tool string
}

type messageDelta struct {
	Delta struct {
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"delta"`
}

type runStepDelta struct {
	Delta struct {
		StepDetails struct {
			Type      string `json:"type"`
			ToolCalls []struct {
				Type            string `json:"type"`
				CodeInterpreter struct {
					Input   string `json:"input"`
					Outputs []struct {
						Type string `json:"type"`
						Logs string `json:"logs"`
					} `json:"outputs"`
				} `json:"code_interpreter"`
			} `json:"tool_calls"`
		} `json:"step_details"`
	} `json:"delta"`
}

type runStepCreated struct {
	StepDetails struct {
		Type      string `json:"type"`
		ToolCalls []struct {
			Type string `json:"type"`
		} `json:"tool_calls"`
	} `json:"step_details"`
}

// StreamAssistantMessage runs the assistant against a thread and streams the
// response as an ordered sequence of typed events. The channel closes when
// the remote stream signals completion or ctx is cancelled. The SDK has no
// streaming support for runs, so this speaks SSE to the raw API.
func (c *Client) StreamAssistantMessage(ctx context.Context, threadID, assistantID string) (<-chan StreamEvent, error) {
	body := fmt.Sprintf(`{"assistant_id":%q,"stream":true}`, assistantID)
	req, err := c.newRawRequest(ctx, http.MethodPost, "/threads/"+threadID+"/runs", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("start run on thread %s: %w", threadID, err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("start run on thread %s: %s", threadID, string(respBody))
	}

	ch := make(chan StreamEvent)
	go func() {
		defer resp.Body.Close()
		defer close(ch)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data := strings.TrimPrefix(line, "data: ")
				if data == "[DONE]" {
					return
				}
				for _, ev := range parseRunEvent(event, data) {
					select {
					case ch <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			log.Printf("[openai] run stream on thread %s ended: %v", threadID, err)
		}
	}()

	return ch, nil
}

func parseRunEvent(event, data string) []StreamEvent {
	switch event {
	case "thread.message.delta":
		var d messageDelta
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil
		}
		var evs []StreamEvent
		for _, part := range d.Delta.Content {
			if part.Type == "text" && part.Text.Value != "" {
				evs = append(evs, StreamEvent{Type: StreamTextDelta, Text: part.Text.Value})
			}
		}
		return evs
	case "thread.run.step.created":
		var s runStepCreated
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil
		}
		if s.StepDetails.Type != "tool_calls" {
			return nil
		}
		var evs []StreamEvent
		for _, tc := range s.StepDetails.ToolCalls {
			evs = append(evs, StreamEvent{Type: StreamToolCallCreated, Tool: tc.Type})
		}
		return evs
	case "thread.run.step.delta":
		var d runStepDelta
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil
		}
		if d.Delta.StepDetails.Type != "tool_calls" {
			return nil
		}
		var evs []StreamEvent
		for _, tc := range d.Delta.StepDetails.ToolCalls {
			if tc.Type != "code_interpreter" {
				continue
			}
			if in := tc.CodeInterpreter.Input; in != "" {
				evs = append(evs, StreamEvent{Type: StreamToolCallDelta, Tool: tc.Type, Text: in})
			}
			for _, out := range tc.CodeInterpreter.Outputs {
				if out.Type == "logs" && out.Logs != "" {
					evs = append(evs, StreamEvent{Type: StreamToolCallDelta, Tool: tc.Type, Text: "\n" + out.Logs})
				}
			}
		}
		return evs
	}
	return nil
}
