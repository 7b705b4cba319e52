package assist

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// commandMappings translates spoken phrases to Windows shell commands run
// on the target PC.
var commandMappings = map[string]string{
	// applications
	"notepad":          "start notepad",
	"calculator":       "start calc",
	"paint":            "start mspaint",
	"chrome":           "start chrome",
	"edge":             "start msedge",
	"firefox":          "start firefox",
	"explorer":         "explorer",
	"file explorer":    "explorer",
	"windows explorer": "explorer",
	"task manager":     "taskmgr",
	"control panel":    "control",
	"settings":         "start ms-settings:",
	"command prompt":   "cmd",
	"cmd":              "cmd",
	"powershell":       "powershell",
	"terminal":         "cmd",

	// system
	"shutdown": "shutdown /s /t 0",
	"restart":  "shutdown /r /t 0",
	"sleep":    "rundll32.exe powrprof.dll,SetSuspendState 0,1,0",
	"lock":     "rundll32.exe user32.dll,LockWorkStation",
	"logoff":   "shutdown /l",

	// media
	"volume up":   "nircmd.exe changesysvolume 2000",
	"volume down": "nircmd.exe changesysvolume -2000",
	"mute":        "nircmd.exe mutesysvolume 1",
	"unmute":      "nircmd.exe mutesysvolume 0",

	// shell folders
	"open downloads": "start shell:downloads",
	"open documents": "start shell:mydocuments",
	"open pictures":  "start shell:mypictures",
	"open desktop":   "start shell:desktop",

	// popular sites
	"youtube":       "start chrome https://youtube.com",
	"google":        "start chrome https://google.com",
	"gmail":         "start chrome https://gmail.com",
	"facebook":      "start chrome https://facebook.com",
	"twitter":       "start chrome https://twitter.com",
	"instagram":     "start chrome https://instagram.com",
	"linkedin":      "start chrome https://linkedin.com",
	"reddit":        "start chrome https://reddit.com",
	"amazon":        "start chrome https://amazon.com",
	"netflix":       "start chrome https://netflix.com",
	"spotify":       "start chrome https://open.spotify.com",
	"github":        "start chrome https://github.com",
	"stackoverflow": "start chrome https://stackoverflow.com",
	"wikipedia":     "start chrome https://wikipedia.org",
	"twitch":        "start chrome https://twitch.tv",
	"discord":       "start chrome https://discord.com",
	"whatsapp":      "start chrome https://web.whatsapp.com",
	"telegram":      "start chrome https://web.telegram.org",

	// network
	"wifi off": "netsh interface set interface Wi-Fi disabled",
	"wifi on":  "netsh interface set interface Wi-Fi enabled",
	"show ip":  "ipconfig",

	// screen
	"screenshot":      "snippingtool /clip",
	"brightness up":   "powershell (Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,100)",
	"brightness down": "powershell (Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,50)",
}

// mappingKeys holds the phrases of commandMappings sorted longest first, so
// containment lookups are deterministic and prefer the most specific match.
var mappingKeys = func() []string {
	keys := make([]string, 0, len(commandMappings))
	for k := range commandMappings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var siteURLs = map[string]string{
	"facebook":       "https://facebook.com",
	"fb":             "https://facebook.com",
	"twitter":        "https://twitter.com",
	"x":              "https://twitter.com",
	"instagram":      "https://instagram.com",
	"insta":          "https://instagram.com",
	"linkedin":       "https://linkedin.com",
	"reddit":         "https://reddit.com",
	"youtube":        "https://youtube.com",
	"gmail":          "https://gmail.com",
	"google":         "https://google.com",
	"amazon":         "https://amazon.com",
	"netflix":        "https://netflix.com",
	"spotify":        "https://spotify.com",
	"github":         "https://github.com",
	"stackoverflow":  "https://stackoverflow.com",
	"stack overflow": "https://stackoverflow.com",
	"wikipedia":      "https://wikipedia.org",
	"wiki":           "https://wikipedia.org",
	"twitch":         "https://twitch.tv",
	"discord":        "https://discord.com",
	"whatsapp":       "https://web.whatsapp.com",
	"telegram":       "https://web.telegram.org",
	"tiktok":         "https://tiktok.com",
	"pinterest":      "https://pinterest.com",
	"ebay":           "https://ebay.com",
}

var knownSites = []string{
	"facebook", "twitter", "instagram", "linkedin", "reddit", "tiktok",
	"amazon", "ebay", "netflix", "spotify", "github", "stackoverflow",
	"wikipedia", "twitch", "discord", "whatsapp", "telegram",
}

var (
	schemeURLRe  = regexp.MustCompile(`(?i)https?://\S+`)
	wwwURLRe     = regexp.MustCompile(`(?i)www\.\S+`)
	bareDomainRe = regexp.MustCompile(`(?i)\b[a-z0-9-]+(\.[a-z0-9-]+)+\b`)
	domainRe     = regexp.MustCompile(`(?i)^[a-z0-9-]+(\.[a-z0-9-]+)+$`)

	openRe   = regexp.MustCompile(`^open\s+(.+)`)
	startRe  = regexp.MustCompile(`^start\s+(.+)`)
	goToRe   = regexp.MustCompile(`^go to\s+(.+)`)
	launchRe = regexp.MustCompile(`^launch\s+(.+)`)
	runRe    = regexp.MustCompile(`^run\s+(.+)`)

	siteKeywordRe = regexp.MustCompile(`(?:open|start|go to|launch)\s+([\w\s]+?)\s+(?:website|site|web page|webpage)`)
)

// LocalCommand resolves a spoken instruction (already stripped of the wake
// word and the device phrase) into a shell command, without the model in
// the loop. ok is false when nothing recognizable was said.
func LocalCommand(phrase string) (cmd string, ok bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return "", false
	}

	// A literal URL or domain wins outright.
	if url := extractURL(p); url != "" {
		return "start chrome " + url, true
	}

	if c, ok := commandMappings[p]; ok {
		return c, true
	}
	for _, key := range mappingKeys {
		if p == key || strings.HasPrefix(p, key+" ") ||
			strings.HasSuffix(p, " "+key) || strings.Contains(p, " "+key+" ") {
			return commandMappings[key], true
		}
	}

	if strings.Contains(p, "site") || strings.Contains(p, "web page") || strings.Contains(p, "webpage") {
		if m := siteKeywordRe.FindStringSubmatch(p); m != nil {
			return "start chrome " + convertToURL(strings.TrimSpace(m[1])), true
		}
	}

	if m := openRe.FindStringSubmatch(p); m != nil {
		return openTarget(m[1]), true
	}
	if m := startRe.FindStringSubmatch(p); m != nil {
		return startTarget(m[1]), true
	}
	if m := goToRe.FindStringSubmatch(p); m != nil {
		target := stripSiteWords(m[1])
		return "start chrome " + convertToURL(target), true
	}
	if m := launchRe.FindStringSubmatch(p); m != nil {
		return startTarget(m[1]), true
	}
	if m := runRe.FindStringSubmatch(p); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	switch {
	case strings.Contains(p, "shutdown"):
		return "shutdown /s /t 0", true
	case strings.Contains(p, "restart"), strings.Contains(p, "reboot"):
		return "shutdown /r /t 0", true
	case strings.Contains(p, "lock"):
		return "rundll32.exe user32.dll,LockWorkStation", true
	case strings.Contains(p, "sleep"):
		return "rundll32.exe powrprof.dll,SetSuspendState 0,1,0", true
	case strings.Contains(p, "logoff"), strings.Contains(p, "log off"):
		return "shutdown /l", true
	}

	return "", false
}

func openTarget(target string) string {
	target = strings.TrimSpace(target)
	clean := stripSiteWords(target)
	if treatAsWebsite(target, clean) {
		return "start chrome " + convertToURL(clean)
	}
	if c, ok := commandMappings[normalizeAppName(clean)]; ok {
		return c
	}
	// Unknown app: let Windows resolve it.
	return "start " + strings.ReplaceAll(strings.ToLower(clean), " ", "")
}

func startTarget(target string) string {
	target = strings.TrimSpace(target)
	clean := stripSiteWords(target)
	if treatAsWebsite(target, clean) {
		return "start chrome " + convertToURL(clean)
	}
	return "start " + strings.ReplaceAll(strings.ToLower(clean), " ", "")
}

func stripSiteWords(s string) string {
	for _, w := range []string{" website", " web page", " webpage", " site"} {
		s = strings.ReplaceAll(s, w, "")
	}
	return strings.TrimSpace(s)
}

func treatAsWebsite(original, clean string) bool {
	if strings.Contains(original, "website") || strings.Contains(original, "site") ||
		strings.Contains(original, "web page") || strings.Contains(original, "webpage") {
		return true
	}
	if domainRe.MatchString(clean) {
		return true
	}
	for _, site := range knownSites {
		if strings.Contains(clean, site) {
			return true
		}
	}
	return false
}

func extractURL(text string) string {
	if m := schemeURLRe.FindString(text); m != "" {
		return m
	}
	if m := wwwURLRe.FindString(text); m != "" {
		return "https://" + m
	}
	if m := bareDomainRe.FindString(text); m != "" {
		return "https://" + m
	}
	return ""
}

func convertToURL(siteName string) string {
	clean := strings.ToLower(strings.TrimSpace(siteName))
	if url, ok := siteURLs[clean]; ok {
		return url
	}
	if strings.Contains(clean, ".") {
		return "https://" + clean
	}
	return fmt.Sprintf("https://%s.com", strings.ReplaceAll(clean, " ", ""))
}

func normalizeAppName(app string) string {
	n := strings.ToLower(strings.TrimSpace(app))
	switch {
	case strings.Contains(n, "file explorer"), strings.Contains(n, "windows explorer"):
		return "file explorer"
	case strings.Contains(n, "task manager"):
		return "task manager"
	case strings.Contains(n, "control panel"):
		return "control panel"
	case strings.Contains(n, "command prompt"), n == "cmd":
		return "command prompt"
	case n == "powershell", n == "power shell":
		return "powershell"
	case n == "calc", n == "calculator":
		return "calculator"
	case n == "google chrome":
		return "chrome"
	case n == "microsoft edge":
		return "edge"
	case n == "mozilla firefox":
		return "firefox"
	default:
		return n
	}
}
