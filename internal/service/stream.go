package service

import (
	"context"
	"fmt"
	"time"

	"github.com/liliang-cn/docchat/internal/domain"
	"go.uber.org/zap"
)

// GenerateStream produces the ordered event sequence for a query: tool-call
// progress, UI components, character-level text with inline citation
// splicing, and a final complete event. Events are delivered on the returned
// channel, which is closed when the stream ends. Production stops promptly
// when ctx is cancelled. A fault during generation surfaces as a single
// terminal error event.
func (s *ResponseService) GenerateStream(ctx context.Context, query string) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent)

	go func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("stream generation failed",
					zap.String("query", query),
					zap.Any("panic", r),
				)
				s.emit(ctx, ch, domain.StreamEvent{
					Type:    domain.EventError,
					Content: fmt.Sprintf("response generation failed: %v", r),
				})
			}
		}()
		s.run(ctx, query, ch)
	}()

	return ch
}

func (s *ResponseService) run(ctx context.Context, query string, ch chan<- domain.StreamEvent) {
	resp := selectResponse(query)

	// Phase 1: simulated tool calls, each running then completed
	for _, tc := range toolScript {
		running := tc
		if !s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventToolCall, ToolCall: &running}) {
			return
		}
		if !s.sleep(ctx, s.toolDelay()) {
			return
		}

		completed := domain.ToolCall{
			Tool:    tc.Tool,
			Status:  domain.ToolStatusCompleted,
			Message: completedToolMessage(tc.Message),
		}
		if !s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventToolCall, ToolCall: &completed}) {
			return
		}
		if !s.sleep(ctx, s.toolPause) {
			return
		}
	}

	// Phase 2: UI components, before any text
	for _, comp := range resp.UIComponents {
		ev := domain.StreamEvent{
			Type:          domain.EventUIComponent,
			ComponentType: comp.Type,
			ComponentData: comp.Data,
		}
		if !s.emit(ctx, ch, ev) {
			return
		}
		if !s.sleep(ctx, s.uiDelay) {
			return
		}
	}

	// Phase 3: body text character by character, splicing a citation event
	// after the first occurrence of each [N] marker
	chars := []rune(resp.Body)
	sent := make(map[int]bool)

	for i := 0; i < len(chars); {
		if chars[i] == '[' && i+2 < len(chars) && isDigit(chars[i+1]) && chars[i+2] == ']' {
			// The marker is atomic: its three characters stream as
			// ordinary text chunks, then the citation follows.
			for j := i; j < i+3; j++ {
				if !s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventTextChunk, Content: string(chars[j])}) {
					return
				}
				if !s.sleep(ctx, s.charDelay) {
					return
				}
			}
			id := int(chars[i+1] - '0')
			i += 3

			if !sent[id] {
				for k := range resp.Citations {
					if resp.Citations[k].ID != id {
						continue
					}
					cit := resp.Citations[k]
					if !s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventCitation, Citation: &cit}) {
						return
					}
					sent[id] = true
					if !s.sleep(ctx, s.citationDelay) {
						return
					}
					break
				}
			}
			continue
		}

		if !s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventTextChunk, Content: string(chars[i])}) {
			return
		}
		if !s.sleep(ctx, s.charDelay) {
			return
		}
		i++
	}

	// Phase 4: completion with the full, unmodified body
	s.emit(ctx, ch, domain.StreamEvent{Type: domain.EventComplete, Content: resp.Body})
}

// emit delivers one event, or reports false if the client is gone
func (s *ResponseService) emit(ctx context.Context, ch chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep suspends for d while staying responsive to cancellation
func (s *ResponseService) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
