package commands

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var botStartTime = time.Now()

// systemStats holds the host and runtime numbers shown by /stats.
type systemStats struct {
	Hostname     string
	OS           string
	Platform     string
	Architecture string
	HostUptime   time.Duration

	CPUModel string
	CPUCores int
	CPUUsage float64

	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64

	GoVersion  string
	GoRoutines int
	MemAlloc   uint64
	NumGC      uint32

	BotUptime time.Duration
	Guilds    int
	Latency   time.Duration
}

// handleStats shows host and runtime statistics.
func handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	stats := gatherSystemStats(s)
	embed := statsEmbed(stats)

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

func gatherSystemStats(s *discordgo.Session) *systemStats {
	stats := &systemStats{}

	if hostInfo, err := host.Info(); err == nil {
		stats.Hostname = hostInfo.Hostname
		stats.OS = hostInfo.OS
		stats.Platform = hostInfo.Platform
		stats.Architecture = hostInfo.KernelArch
		stats.HostUptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		stats.CPUModel = cpuInfo[0].ModelName
	}
	stats.CPUCores = runtime.NumCPU()
	if cpuPercent, err := cpu.Percent(time.Second, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.TotalMemory = memInfo.Total
		stats.UsedMemory = memInfo.Used
		stats.MemoryPercent = memInfo.UsedPercent
	}

	stats.GoVersion = runtime.Version()
	stats.GoRoutines = runtime.NumGoroutine()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.MemAlloc = m.Alloc
	stats.NumGC = m.NumGC

	stats.BotUptime = time.Since(botStartTime)
	stats.Guilds = len(s.State.Guilds)
	stats.Latency = s.HeartbeatLatency()

	return stats
}

func statsEmbed(stats *systemStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Xerl Statistics",
		Color: 0x6366f1,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🖥️ Host",
				Value: fmt.Sprintf("**Hostname:** `%s`\n**OS:** `%s/%s`\n**Arch:** `%s`\n**Uptime:** `%s`",
					stats.Hostname, stats.OS, stats.Platform,
					stats.Architecture, formatDuration(stats.HostUptime)),
				Inline: false,
			},
			{
				Name: "⚡ CPU",
				Value: fmt.Sprintf("**Model:** `%s`\n**Cores:** `%d`\n**Usage:** `%.1f%%`",
					truncateString(stats.CPUModel, 40), stats.CPUCores, stats.CPUUsage),
				Inline: true,
			},
			{
				Name: "💾 Memory",
				Value: fmt.Sprintf("**Used:** `%s / %s`\n**Usage:** `%.1f%%`",
					formatBytes(stats.UsedMemory), formatBytes(stats.TotalMemory),
					stats.MemoryPercent),
				Inline: true,
			},
			{
				Name: "🤖 Bot",
				Value: fmt.Sprintf("**Uptime:** `%s`\n**Guilds:** `%d`\n**Latency:** `%dms`",
					formatDuration(stats.BotUptime), stats.Guilds,
					stats.Latency.Milliseconds()),
				Inline: true,
			},
			{
				Name: "🔷 Go Runtime",
				Value: fmt.Sprintf("**Version:** `%s`\n**Goroutines:** `%d`\n**Heap:** `%s`\n**GC Cycles:** `%d`",
					stats.GoVersion, stats.GoRoutines,
					formatBytes(stats.MemAlloc), stats.NumGC),
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
