package main

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core"
)

// removeCourse unpublishes a course and its modules.
func (cli *commandLine) removeCourse(id int) error {
	token, err := adminToken()
	if err != nil {
		return err
	}

	ctx := core.ContextWithToken(context.Background(), token)
	if err := cli.svc.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("course %d removed\n", id)
	return nil
}
