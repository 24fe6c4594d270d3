package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-verify-bot/internal/application/dispatch"
	"github.com/go-verify-bot/internal/platform"
)

type latencySource interface {
	Latency() int64
}

type latencyLevel struct {
	limit  int64
	emoji  string
	status string
	color  int
}

var latencyLevels = []latencyLevel{
	{50, "🟢", "Excellent", 0x57f287},
	{100, "🟡", "Good", 0xfee75c},
	{200, "🟠", "Fair", 0xe67e22},
	{500, "🔴", "Poor", 0xed4245},
}

func rateLatency(ms int64) latencyLevel {
	if ms < 0 {
		return latencyLevel{emoji: "⚫", status: "Unknown", color: 0x992d22}
	}
	for _, l := range latencyLevels {
		if ms < l.limit {
			return l
		}
	}
	return latencyLevel{emoji: "⚫", status: "Critical", color: 0x992d22}
}

func overallRating(avg int64) string {
	switch {
	case avg < 50:
		return "🚀 **Blazing Fast**"
	case avg < 100:
		return "⚡ **Fast**"
	case avg < 200:
		return "✅ **Normal**"
	case avg < 500:
		return "⚠️ **Slow**"
	default:
		return "❌ **Critical**"
	}
}

func formatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	days, hours, minutes, s := secs/86400, secs%86400/3600, secs%3600/60, secs%60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, s)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// pingCommand reports gateway latency and process uptime.
type pingCommand struct {
	client  latencySource
	started time.Time
	now     func() time.Time
}

func (c *pingCommand) Meta() dispatch.CommandMeta {
	return dispatch.CommandMeta{Names: []string{"ping"}, Defer: dispatch.DeferHidden}
}

func (c *pingCommand) Execute(ctx context.Context, ev *platform.CommandEvent, _ dispatch.EventData) error {
	start := c.now()
	ws := c.client.Latency()
	rtt := c.now().Sub(start).Milliseconds()

	rttLevel, wsLevel := rateLatency(rtt), rateLatency(ws)
	color := rttLevel.color
	if ws > rtt {
		color = wsLevel.color
	}
	metrics := strings.Join([]string{
		fmt.Sprintf("%s **Round Trip:** `%dms` *(%s)*", rttLevel.emoji, rtt, rttLevel.status),
		fmt.Sprintf("%s **WebSocket:** `%dms` *(%s)*", wsLevel.emoji, ws, wsLevel.status),
		fmt.Sprintf("📊 **Uptime:** `%s`", formatUptime(c.now().Sub(c.started))),
	}, "\n")

	return ev.Responder.EditReply(ctx, platform.EmbedMessage(platform.Embed{
		Title:       "🏓 Pong!",
		Description: "Latency and connection metrics",
		Color:       color,
		Fields: []platform.EmbedField{
			{Name: "Connection Metrics", Value: metrics},
			{Name: "Performance Rating", Value: overallRating((rtt + ws) / 2)},
		},
		Footer:    "Requested by " + ev.User.Tag(),
		Timestamp: c.now(),
	}))
}
