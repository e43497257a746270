package display

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	white  = "\033[37m"

	brightRed     = "\033[91m"
	brightGreen   = "\033[92m"
	brightYellow  = "\033[93m"
	brightBlue    = "\033[94m"
	brightMagenta = "\033[95m"
	brightCyan    = "\033[96m"
	brightWhite   = "\033[97m"
)

// ServerInfo holds all the information to display in the startup banner.
type ServerInfo struct {
	Version string

	// Generation
	Provider    string
	Model       string
	Endpoint    string
	MaxAttempts int

	// Storage
	StoreURL     string
	UploadDir    string
	SolutionsDir string

	// Server
	Port           int
	MaxUploadBytes int64
}

// PrintBanner prints the startup banner with all server information.
func PrintBanner(w io.Writer, info ServerInfo) {
	host := fmt.Sprintf("http://localhost:%d", info.Port)

	// Header
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s⚡ SolveSafe Server%s", bold, brightCyan, reset)
	if info.Version != "" {
		fmt.Fprintf(w, " %s%s%s", dim, info.Version, reset)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)

	printSectionHeader(w, "🤖 Generation")
	printKV(w, "Provider", info.Provider, brightWhite)
	printKV(w, "Model", info.Model, brightMagenta)
	if info.Endpoint != "" {
		printKV(w, "Endpoint", maskURL(info.Endpoint), dim+white)
	}
	printKVColored(w, "Max Attempts", fmt.Sprintf("%d", info.MaxAttempts), brightYellow)
	fmt.Fprintln(w)

	printSectionHeader(w, "💾 Storage")
	printKV(w, "Store", maskURL(info.StoreURL), brightGreen)
	printKV(w, "Uploads", info.UploadDir, white)
	printKV(w, "Solutions", info.SolutionsDir, white)
	if info.MaxUploadBytes > 0 {
		printKV(w, "Upload Limit", formatBytes(info.MaxUploadBytes), white)
	}
	fmt.Fprintln(w)

	printSectionHeader(w, "🌐 Endpoints")
	printEndpoint(w, "Upload", "POST", host+"/upload", brightBlue)
	printEndpoint(w, "File", "GET ", host+"/download/{id}", brightCyan)
	printEndpoint(w, "Health", "GET ", host+"/health", green)
	fmt.Fprintln(w)

	// Footer
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintf(w, "  %s%s🚀 Server listening on %s%s%s%s\n", dim, white, reset, bold+brightGreen, host, reset)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)
}

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func printSectionHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "  %s%s%s%s\n", bold, brightYellow, title, reset)
}

func printKV(w io.Writer, key, value, valueColor string) {
	if value == "" {
		value, valueColor = "(not set)", dim+yellow
	}
	fmt.Fprintf(w, "    %s%s%s  %s%s%s\n", dim, padRight(key, 18), reset, valueColor, value, reset)
}

func printKVColored(w io.Writer, key, value, valueColor string) {
	fmt.Fprintf(w, "    %s%s%s  %s%s%s%s\n", dim, padRight(key, 18), reset, bold, valueColor, value, reset)
}

func printEndpoint(w io.Writer, label, method, url, color string) {
	fmt.Fprintf(w, "    %s%s%s %s%s%-5s%s %s%s%s\n",
		dim, padRight(label, 8), reset,
		bold, brightWhite, method, reset,
		color, url, reset,
	)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// maskURL hides any password in a connection URL.
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return strings.TrimRight(raw, "/")
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return strings.TrimRight(u.String(), "/")
}
