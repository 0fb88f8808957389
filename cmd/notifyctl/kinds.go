package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pactnotify/internal/notification"
)

func runKinds(stdout io.Writer) int {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tDOMAIN\tPRIORITY")
	for _, k := range notification.Kinds() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Type, k.Domain, k.Priority)
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}
