package devnet

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
)

const noValuePlaceholder = "-"

// printSummary writes the human-readable connection info for the stack:
// which groups came up, where to reach them, and the auth token a group
// issued. This is reporting only; nothing parses it.
func (devnet *Devnet) printSummary() {
	fmt.Fprintln(devnet.out)
	fmt.Fprintln(devnet.out, "Devnet is up. Connection info:")
	fmt.Fprintln(devnet.out)

	table := tablewriter.NewWriter(devnet.out)
	table.SetHeader([]string{"GROUP", "STATE", "RPC", "PUBLISHED PORTS", "AUTH TOKEN"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, result := range devnet.results.InOrder() {
		rpcUrl := result.Group.Params.RpcUrl
		if rpcUrl == "" {
			rpcUrl = noValuePlaceholder
		}

		ports := ""
		for _, endpoint := range result.Group.PublishedEndpoints() {
			if ports != "" {
				ports += " "
			}
			ports += fmt.Sprintf("%s:%s", endpoint.Service, endpoint.HostPort)
		}
		if ports == "" {
			ports = noValuePlaceholder
		}

		token := noValuePlaceholder
		if result.Credential != nil {
			token = result.Credential.Value
		}

		table.Append([]string{
			result.Group.Name(),
			string(result.State),
			rpcUrl,
			ports,
			token,
		})
	}
	table.Render()
	fmt.Fprintln(devnet.out)
}
