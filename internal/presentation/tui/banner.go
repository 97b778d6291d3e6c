package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"     _                        _          ",
	" ___| |_ ___ _ ____      __ (_)___  ___ ",
	"/ __| __/ _ \\ '_ \\ \\ /\\ / / | / __|/ _ \\",
	"\\__ \\ ||  __/ |_) \\ V  V /  | \\__ \\  __/",
	"|___/\\__\\___| .__/ \\_/\\_/   |_|___/\\___|",
	"            |_|                          ",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the ASCII banner to w, colored for the detected profile.
func PrintBanner(w io.Writer) {
	PrintBannerWithProfile(w, termenv.ColorProfile())
}

// PrintBannerWithProfile writes the banner using profile p.
func PrintBannerWithProfile(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
