package gossip

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Status is a point-in-time snapshot of a shell.
type Status struct {
	// Addr is the shell's address.
	Addr string `json:"addr" yaml:"addr"`

	// Peers are the addresses of the current peer set.
	Peers []string `json:"peers" yaml:"peers"`

	// Identifiers are the active gossip streams.
	Identifiers []string `json:"identifiers" yaml:"identifiers"`

	// Rounds is the number of gossip rounds run.
	Rounds uint64 `json:"rounds" yaml:"rounds"`

	// NextRound is whether a round timer is armed.
	NextRound bool `json:"next_round" yaml:"next_round"`
}

// StatusProvider is implemented by Control for any envelope type.
type StatusProvider interface {
	Status(timeout time.Duration) (Status, error)
}

// StatusHandler serves a shell's status in the admin API.
type StatusHandler struct {
	provider StatusProvider
}

func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{
		provider: provider,
	}
}

func (h *StatusHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.statusRoute)
}

func (h *StatusHandler) statusRoute(c *gin.Context) {
	status, err := h.provider.Status(time.Second * 3)
	if err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, status)
}
