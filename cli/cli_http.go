package cli

import (
	"fmt"
	"strconv"
	"strings"

	"originwidget/version"

	"github.com/chzyer/readline"
)

// CLIHttp is the interactive client for a running originwidget server.
type CLIHttp struct {
	rl      *readline.Instance
	running bool
	client  *Client
}

// NewCLIHttp connects to serverURL and prepares the prompt.
func NewCLIHttp(serverURL string) (*CLIHttp, error) {
	client := NewClient(serverURL)

	if err := client.HealthCheck(); err != nil {
		return nil, fmt.Errorf("cannot connect to server: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &CLIHttp{
		rl:      rl,
		running: true,
		client:  client,
	}, nil
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("apps"),
	readline.PcItem("list"),
	readline.PcItem("show"),
	readline.PcItem("save"),
	readline.PcItem("delete"),
	readline.PcItem("size"),
	readline.PcItem("refresh", readline.PcItem("all")),
	readline.PcItem("frame"),
	readline.PcItem("fetch"),
	readline.PcItem("defaults"),
	readline.PcItem("status"),
	readline.PcItem("exit"),
)

// Start runs the prompt loop until exit or EOF.
func (c *CLIHttp) Start() {
	defer c.rl.Close()
	c.printWelcome()

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println("\n⚠ Ctrl+C detected. Please use 'exit' or 'quit' command to exit gracefully.")
				continue
			}
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		c.handleCommand(input)
	}
}

func (c *CLIHttp) printWelcome() {
	PrintBanner("originwidget - CLI Mode (HTTP Client)",
		"server:  "+c.client.baseURL,
		"version: "+version.GetFullVersion())
	fmt.Println("Type 'help' for available commands")
}

func (c *CLIHttp) handleCommand(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "h", "?":
		c.showHelp()
	case "apps":
		c.listApps()
	case "list", "ls":
		c.listWidgets()
	case "show", "get":
		c.withID(args, "show <id>", c.showWidget)
	case "save":
		c.saveWidget(args)
	case "delete", "del", "rm":
		c.withID(args, "delete <id>", c.deleteWidget)
	case "size":
		c.setSize(args)
	case "refresh":
		if len(args) == 1 && args[0] == "all" {
			c.refreshAll()
			return
		}
		c.withID(args, "refresh <id|all>", c.refreshWidget)
	case "frame":
		c.withID(args, "frame <id>", c.showFrame)
	case "fetch":
		c.fetchFrame(args)
	case "defaults":
		c.showDefaults()
	case "status", "st":
		c.showStatus()
	case "exit", "quit", "q":
		c.running = false
		fmt.Println("Bye.")
	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}
}

func (c *CLIHttp) showHelp() {
	fmt.Println()
	PrintBanner("Available Commands")
	fmt.Println()

	commands := [][]string{
		{"help, h, ?", "Show this help message"},
		{"", ""},
		{"APPS:", ""},
		{"apps", "List installed apps"},
		{"", ""},
		{"WIDGETS:", ""},
		{"list", "List configured widgets"},
		{"show <id>", "Show a widget config"},
		{"save <id> <package> [radius mh mv mi]", "Save a widget config (missing values use defaults)"},
		{"delete <id>", "Delete a widget"},
		{"size <id> <width> <height>", "Report the widget size"},
		{"refresh <id|all>", "Refresh one widget, or queue all"},
		{"frame <id>", "Show the widget surface layout"},
		{"fetch <id> <file.png>", "Download the rendered background"},
		{"defaults", "Show default margins and radius"},
		{"", ""},
		{"SYSTEM:", ""},
		{"status", "Show updater and surface metrics"},
		{"exit, quit, q", "Exit the program"},
	}

	for _, cmd := range commands {
		if cmd[0] != "" {
			fmt.Printf("  %-40s %s\n", cmd[0], cmd[1])
		} else {
			fmt.Println()
		}
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid widget id: %s", s)
	}
	return id, nil
}

func (c *CLIHttp) withID(args []string, usage string, fn func(int)) {
	if len(args) < 1 {
		fmt.Println("Usage: " + usage)
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fn(id)
}

func (c *CLIHttp) listApps() {
	list, err := c.client.ListApps()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No apps installed.")
		return
	}
	fmt.Printf("%-30s %s\n", "NAME", "PACKAGE")
	for _, app := range list {
		fmt.Printf("%-30s %s\n", app.Name, app.PackageName)
	}
}

func (c *CLIHttp) listWidgets() {
	list, err := c.client.ListWidgets()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No widgets configured.")
		return
	}
	fmt.Printf("%-6s %-32s %-8s %-8s %s\n", "ID", "PACKAGE", "BG", "ICON", "R/MH/MV/MI")
	for _, w := range list {
		fmt.Printf("%-6d %-32s %-8s %-8s %d/%d/%d/%d\n",
			w.ID, w.PackageName, w.BackgroundKind, w.IconKind,
			w.Radius, w.MarginHorizontal, w.MarginVertical, w.MarginIcon)
	}
}

func (c *CLIHttp) showWidget(id int) {
	w, err := c.client.GetWidget(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Widget %d\n", w.ID)
	fmt.Printf("  Package:           %s\n", w.PackageName)
	fmt.Printf("  Background kind:   %s\n", w.BackgroundKind)
	fmt.Printf("  Icon kind:         %s\n", w.IconKind)
	fmt.Printf("  Radius:            %d\n", w.Radius)
	fmt.Printf("  Margin horizontal: %d\n", w.MarginHorizontal)
	fmt.Printf("  Margin vertical:   %d\n", w.MarginVertical)
	fmt.Printf("  Margin icon:       %d\n", w.MarginIcon)
}

func (c *CLIHttp) saveWidget(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: save <id> <package> [radius mh mv mi]")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	req, err := c.client.NewSession()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	req.PackageName = args[1]

	targets := []*int{&req.Radius, &req.MarginHorizontal, &req.MarginVertical, &req.MarginIcon}
	for i, raw := range args[2:] {
		if i >= len(targets) {
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fmt.Printf("Error: invalid value %q\n", raw)
			return
		}
		*targets[i] = n
	}

	cfg, err := c.client.SaveWidget(id, req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Widget %d saved (%s)\n", cfg.ID, cfg.PackageName)
}

func (c *CLIHttp) deleteWidget(id int) {
	if err := c.client.DeleteWidget(id); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Widget %d deleted\n", id)
}

func (c *CLIHttp) setSize(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: size <id> <width> <height>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	w, errW := strconv.Atoi(args[1])
	h, errH := strconv.Atoi(args[2])
	if errW != nil || errH != nil {
		fmt.Println("Error: width and height must be integers")
		return
	}
	if err := c.client.ReportSize(id, w, h); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Widget %d size set to %dx%d\n", id, w, h)
}

func (c *CLIHttp) refreshWidget(id int) {
	res, err := c.client.Refresh(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Widget %d refreshed in %v (background=%v icon=%v size=%dx%d)\n",
		id, res.Duration, res.Background, res.Icon, res.Width, res.Height)
}

func (c *CLIHttp) refreshAll() {
	queued, err := c.client.RefreshAll()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Queued %d widget update(s)\n", queued)
}

func (c *CLIHttp) showFrame(id int) {
	sf, err := c.client.GetFrame(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Surface %d (%dx%d), %d frame(s), updated %s\n", sf.ID, sf.Width, sf.Height, sf.Frames, sf.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Click target:       %s\n", sf.ClickTarget)
	fmt.Printf("  Background padding: %+v\n", sf.BackgroundPadding)
	fmt.Printf("  Icon padding:       %+v\n", sf.IconPadding)
	fmt.Printf("  Background hash:    %s\n", sf.BackgroundHash)
	fmt.Printf("  Icon hash:          %s\n", sf.IconHash)
}

func (c *CLIHttp) fetchFrame(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: fetch <id> <file.png>")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	n, err := c.client.DownloadFrame(id, args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("✓ Wrote %d bytes to %s\n", n, args[1])
}

func (c *CLIHttp) showDefaults() {
	d, err := c.client.GetDefaults()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Radius: %d  Margin horizontal: %d  Margin vertical: %d  Margin icon: %d\n",
		d.Radius, d.MarginHorizontal, d.MarginVertical, d.MarginIcon)
}

func (c *CLIHttp) showStatus() {
	m, err := c.client.GetMetrics()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, section := range []string{"updater", "surfaces", "apps", "errors", "sqlite", "system"} {
		fmt.Printf("%-9s %v\n", section+":", m[section])
	}
}
