package devnet

import (
	"context"
	"fmt"
	"time"

	"github.com/kurtosis-tech/stacktrace"
	"github.com/olekukonko/tablewriter"
	"github.com/rkb-chain/rkb-devnet/internal/rpc"
	"github.com/sirupsen/logrus"
)

// statusProbeTimeout keeps the status command snappy when a node's RPC
// endpoint isn't answering.
const statusProbeTimeout = 2 * time.Second

type blockNumberGetter func(ctx context.Context, rpcUrl string) (uint64, error)

func defaultBlockNumberGetter(ctx context.Context, rpcUrl string) (uint64, error) {
	return rpc.NewClient(rpcUrl, rpc.WithTimeout(statusProbeTimeout)).GetBlockNumber(ctx)
}

// Status inspects the declared stack and prints per-container state, plus
// the execution node's block height when its RPC answers.
func (devnet *Devnet) Status(ctx context.Context) error {
	table := tablewriter.NewWriter(devnet.out)
	table.SetHeader([]string{"GROUP", "CONTAINER", "RUNNING", "HEIGHT"})
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

	for _, params := range devnet.cfg.Manifest.Groups {
		group, err := devnet.loadGroup(ctx, params, devnet.projectName(params))
		if err != nil {
			return stacktrace.Propagate(err, "An error occurred loading service group '%v'", params.Name)
		}

		height := noValuePlaceholder
		if params.RpcUrl != "" {
			if blockNumber, err := devnet.getBlockNumber(ctx, params.RpcUrl); err == nil {
				height = fmt.Sprintf("%d", blockNumber)
			} else {
				logrus.Debugf("Block number probe for group '%v' failed: %v", params.Name, err)
			}
		}

		for idx, containerName := range group.ContainerNames() {
			running := fmt.Sprintf("%v", devnet.isContainerRunning(ctx, containerName))
			rowHeight := noValuePlaceholder
			if idx == 0 {
				rowHeight = height
			}
			table.Append([]string{group.Name(), containerName, running, rowHeight})
		}
	}
	table.Render()
	return nil
}

func (devnet *Devnet) isContainerRunning(ctx context.Context, containerName string) bool {
	inspectResult, err := devnet.inspector.ContainerInspect(ctx, containerName)
	if err != nil || inspectResult.State == nil {
		return false
	}
	return inspectResult.State.Running
}
