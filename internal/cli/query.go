// Package cli implements the one-shot command line mode that queries a single
// server and prints the result to stdout.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/pkg/query"
	"github.com/olekukonko/tablewriter"
)

// Query performs a live full stat query against addr ("host" or "host:port")
// and renders the result as a table.
func Query(addr string, opts config.Query) error {
	client, err := query.NewWithAddr(addr)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	client.Timeout = opts.Timeout
	client.BufferSize = opts.BufferSize

	stat, err := client.Query()
	if err != nil {
		return fmt.Errorf("query %s: %w", addr, err)
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Field", "Value"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	tw.Append([]string{"MOTD", stat.Hostname})
	tw.Append([]string{"Version", stat.Version})
	tw.Append([]string{"Game", stat.GameID + " (" + stat.GameType + ")"})
	tw.Append([]string{"Map", stat.Map})
	tw.Append([]string{"Players", fmt.Sprintf("%d / %d", stat.NumPlayers, stat.MaxPlayers)})
	tw.Append([]string{"Address", stat.HostIP + ":" + strconv.Itoa(int(stat.HostPort))})
	if stat.Plugins != "" {
		tw.Append([]string{"Plugins", stat.Plugins})
	}
	if len(stat.Players) > 0 {
		tw.Append([]string{"Online", strings.Join(stat.Players, ", ")})
	}

	tw.Render()

	return nil
}
