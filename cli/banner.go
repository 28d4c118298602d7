package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const bannerWidth = 60

// PrintBanner writes a boxed banner to stdout. The first line is the title;
// further lines are left-aligned below a separator.
func PrintBanner(title string, lines ...string) {
	writeBanner(os.Stdout, bannerWidth, title, lines...)
}

func writeBanner(w io.Writer, width int, title string, lines ...string) {
	inner := width - 2
	for _, s := range append([]string{title}, lines...) {
		if n := utf8.RuneCountInString(s) + 2; n > inner {
			inner = n
		}
	}

	edge := strings.Repeat("═", inner)
	fmt.Fprintf(w, "╔%s╗\n", edge)
	fmt.Fprintf(w, "║%s║\n", padCenter(title, inner))
	if len(lines) > 0 {
		fmt.Fprintf(w, "╟%s╢\n", strings.Repeat("─", inner))
		for _, s := range lines {
			fmt.Fprintf(w, "║ %s║\n", padRight(s, inner-1))
		}
	}
	fmt.Fprintf(w, "╚%s╝\n", edge)
}

func padCenter(text string, width int) string {
	pad := width - utf8.RuneCountInString(text)
	if pad <= 0 {
		return text
	}
	left := pad / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
}

func padRight(text string, width int) string {
	pad := width - utf8.RuneCountInString(text)
	if pad <= 0 {
		return text
	}
	return text + strings.Repeat(" ", pad)
}
