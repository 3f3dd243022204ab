package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"mailtriage/internal/sse"
)

type SSEHandler struct {
	sseManager *sse.SSEManager
	keepAlive  time.Duration
}

func NewSSEHandler(sseManager *sse.SSEManager) *SSEHandler {
	return &SSEHandler{sseManager: sseManager, keepAlive: 30 * time.Second}
}

// Updates streams table change events to the dashboard
func (h *SSEHandler) Updates(c echo.Context) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	clientChannel := h.sseManager.AddClient()
	defer h.sseManager.RemoveClient(clientChannel)

	initJSON, _ := json.Marshal(sse.Event{
		Type: "connection",
		Data: map[string]string{"message": "Connected to table updates"},
		Time: time.Now().Unix(),
	})
	fmt.Fprintf(c.Response(), "data: %s\n\n", initJSON)
	c.Response().Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case eventData, ok := <-clientChannel:
			if !ok {
				return nil
			}
			fmt.Fprintf(c.Response(), "data: %s\n\n", eventData)
			c.Response().Flush()
		case <-ticker.C:
			fmt.Fprint(c.Response(), ": keep-alive\n\n")
			c.Response().Flush()
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
