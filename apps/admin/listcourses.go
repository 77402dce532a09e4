package main

import (
	"context"
	"fmt"
	"strings"
)

// listCourses prints the published catalog; no credential needed.
func (cli *commandLine) listCourses() error {
	entries, err := cli.svc.Query(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no courses published")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf(
			"%4d  %-30s  %-20s  %s  [%s]\n",
			entry.ID,
			entry.Course.Name,
			entry.Course.Slug,
			entry.Course.Category,
			strings.Join(entry.Course.Topics, ", "),
		)
	}
	return nil
}
