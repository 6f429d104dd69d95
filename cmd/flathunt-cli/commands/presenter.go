package commands

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"flathunt-backend/lib/scrapers/rightmove"
	"flathunt-backend/services/flathunt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/browser"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// consolePresenter renders each accepted listing as a table, prints a
// transit directions link per destination and optionally opens the listing
// page in the default browser. When interactive, pacing blocks on stdin so
// listings don't scroll past unread; unattended runs must not be
// interactive or they would stall waiting for enter.
type consolePresenter struct {
	destinations []flathunt.Destination
	openBrowser  bool
	interactive  bool

	open  func(url string) error
	stdin *bufio.Reader
}

func newConsolePresenter(destinations []flathunt.Destination, openBrowser, interactive bool) *consolePresenter {
	return &consolePresenter{
		destinations: destinations,
		openBrowser:  openBrowser,
		interactive:  interactive,
		open:         browser.OpenURL,
		stdin:        bufio.NewReader(os.Stdin),
	}
}

func commuteMapURL(from rightmove.Coordinate, to flathunt.Destination) string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("origin", fmt.Sprintf("%f,%f", from.Latitude, from.Longitude))
	params.Set("destination", fmt.Sprintf("%f,%f", to.Coordinate.Latitude, to.Coordinate.Longitude))
	params.Set("travelmode", "transit")
	return "https://www.google.com/maps/dir/?" + params.Encode()
}

func (p *consolePresenter) Show(ctx context.Context, property rightmove.Property) error {
	price := "unknown"
	if property.Price != nil {
		price = fmt.Sprintf("%d %s %s", property.Price.Amount, property.Price.CurrencyCode, property.Price.Frequency)
	}

	t := newTable()
	t.AppendRows([]table.Row{
		{"Address", property.DisplayAddress},
		{"Price", price},
		{"Bedrooms", strconv.Itoa(property.Bedrooms)},
		{"Bathrooms", strconv.Itoa(property.Bathrooms)},
		{"Type", property.PropertySubType},
		{"Listed", property.FirstVisibleDate},
	})
	// some listings come without a detail page path
	if property.PropertyURL != "" {
		t.AppendRow(table.Row{"Link", rightmove.PropertyURL(property.PropertyURL)})
	}
	t.Render()

	for _, destination := range p.destinations {
		fmt.Printf("commute to %s: %s\n", destination.Name, commuteMapURL(property.Location, destination))
	}

	if p.openBrowser && property.PropertyURL != "" {
		return p.open(rightmove.PropertyURL(property.PropertyURL))
	}
	return nil
}

func (p *consolePresenter) Pause(ctx context.Context) {
	if !p.interactive {
		return
	}
	fmt.Print("press enter for the next listing...")
	p.stdin.ReadString('\n')
}
