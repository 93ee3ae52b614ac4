package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the tether CLI.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient, teal to violet.
	s1 := termenv.String(" _         _    _                ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String("| |_   ___| |_ | |__    ___  _ __").Foreground(p.Color("#38bdf8"))
	s3 := termenv.String("| __| / _ \\ __|| '_ \\  / _ \\| '__|").Foreground(p.Color("#60a5fa"))
	s4 := termenv.String("| |_ |  __/ |_ | | | ||  __/| |").Foreground(p.Color("#818cf8"))
	s5 := termenv.String(" \\__| \\___|\\__||_| |_| \\___||_|").Foreground(p.Color("#a78bfa"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
	fmt.Println(termenv.String("  lifecycle feed " + version).Faint())
	fmt.Println()
}
