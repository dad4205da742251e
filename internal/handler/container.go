package handler

import (
	"bufio"
	"io"
	"net/http"
	"time"

	"github.com/dockhaven/dockhaven/internal/docker"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ContainerHandler manages container endpoints
type ContainerHandler struct {
	cli *docker.Client
}

// NewContainerHandler creates a new ContainerHandler
func NewContainerHandler(cli *docker.Client) *ContainerHandler {
	return &ContainerHandler{cli: cli}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is token-protected; the dashboard may be served from a
	// different origin than the API during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// List returns containers; ?all=true includes stopped ones
func (h *ContainerHandler) List(c *gin.Context) {
	all := c.DefaultQuery("all", "true") == "true"
	containers, err := h.cli.ListContainers(c.Request.Context(), all)
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, containers)
}

// Start starts a container
func (h *ContainerHandler) Start(c *gin.Context) {
	if err := h.cli.StartContainer(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

// Stop stops a container
func (h *ContainerHandler) Stop(c *gin.Context) {
	if err := h.cli.StopContainer(c.Request.Context(), c.Param("id"), nil); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// Restart restarts a container
func (h *ContainerHandler) Restart(c *gin.Context) {
	if err := h.cli.RestartContainer(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"restarted": true})
}

// Remove force-removes a container
func (h *ContainerHandler) Remove(c *gin.Context) {
	if err := h.cli.RemoveContainer(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// Stats returns a single resource usage snapshot
func (h *ContainerHandler) Stats(c *gin.Context) {
	stats, err := h.cli.GetContainerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Logs streams container logs over a WebSocket, one log line per text
// message. ?tail=N controls the backlog, ?follow=true keeps streaming.
func (h *ContainerHandler) Logs(c *gin.Context) {
	id := c.Param("id")
	tail := c.DefaultQuery("tail", "200")
	follow := c.DefaultQuery("follow", "true") == "true"

	reader, err := h.cli.ContainerLogs(c.Request.Context(), id, tail, follow)
	if err != nil {
		fail(c, wrapEngine(err))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		reader.Close()
		return
	}
	defer conn.Close()
	defer reader.Close()

	// Log output is multiplexed stdout/stderr; demux into a pipe and
	// forward line by line.
	pr, pw := io.Pipe()
	go func() {
		_, _ = stdcopy.StdCopy(pw, pw, reader)
		pw.Close()
	}()

	// Drain client messages so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				reader.Close()
				return
			}
		}
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 512*1024)
	for scanner.Scan() {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, scanner.Bytes()); err != nil {
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
